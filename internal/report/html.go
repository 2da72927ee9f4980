package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/reconctl/reconctl/internal/fingerprint"
	"github.com/reconctl/reconctl/internal/model"
)

// GenerateHTML renders report as a minimal, dependency-free HTML document.
// No templating library is wired anywhere in the pack for this shape of
// fixed, structured report, so this builds the markup the same way
// markdown.go builds its document — a plain strings.Builder walk over the
// fingerprint, escaping any field that could carry attacker-controlled text
// (banners, titles, TXT records) before it reaches the page.
func GenerateHTML(report model.Report) string {
	fp := report.Fingerprint
	summary := fingerprint.BuildSummary(fp)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>Scan Report: %s</title>", html.EscapeString(report.Target.Host))
	b.WriteString("<style>body{font-family:sans-serif;margin:2rem;}table{border-collapse:collapse;}td,th{border:1px solid #ccc;padding:4px 8px;}</style>")
	b.WriteString("</head><body>\n")

	fmt.Fprintf(&b, "<h1>Scan Report: %s</h1>\n", html.EscapeString(report.Target.Host))
	fmt.Fprintf(&b, "<p><b>Status:</b> %s &middot; <b>Scanned at:</b> %s &middot; <b>Duration:</b> %s</p>\n",
		html.EscapeString(report.Status),
		report.Timestamp.Format("2006-01-02 15:04:05 MST"),
		report.Duration)

	b.WriteString("<h2>Summary</h2><ul>")
	fmt.Fprintf(&b, "<li>Primary IP: <code>%s</code></li>", html.EscapeString(orNone(summary.PrimaryIP)))
	fmt.Fprintf(&b, "<li>CDN: %s</li>", html.EscapeString(orNone(summary.CDN)))
	fmt.Fprintf(&b, "<li>Server: %s</li>", html.EscapeString(orNone(summary.Server)))
	fmt.Fprintf(&b, "<li>Subdomains: %d</li>", summary.SubdomainCount)
	fmt.Fprintf(&b, "<li>Open ports: %d</li></ul>\n", summary.OpenPortCount)

	b.WriteString("<h2>Attack Surface</h2>")
	if len(fp.AttackSurface.OpenPorts) > 0 {
		b.WriteString("<table><tr><th>Port</th><th>Service</th></tr>")
		for _, p := range fp.AttackSurface.OpenPorts {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", html.EscapeString(p.Port), html.EscapeString(orNone(p.Service)))
		}
		b.WriteString("</table>")
	} else {
		b.WriteString("<p>No open ports discovered.</p>")
	}

	if len(fp.AttackSurface.Subdomains.List) > 0 {
		b.WriteString("<h3>Subdomains</h3><ul>")
		for _, s := range fp.AttackSurface.Subdomains.List {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(s))
		}
		b.WriteString("</ul>")
	}

	if len(fp.AttackSurface.DanglingCNAMEs) > 0 {
		b.WriteString("<h3>Dangling CNAMEs (possible subdomain takeover)</h3><ul>")
		for _, d := range fp.AttackSurface.DanglingCNAMEs {
			fmt.Fprintf(&b, "<li><code>%s</code> -&gt; <code>%s</code> (%s)</li>", html.EscapeString(d.Host), html.EscapeString(d.CNAME), html.EscapeString(d.Status))
		}
		b.WriteString("</ul>")
	}

	b.WriteString("<h2>Technologies</h2><p>")
	b.WriteString(html.EscapeString(joinOrNone(fp.Technologies.Detected)))
	b.WriteString("</p>\n")

	b.WriteString("<h2>Security</h2><ul>")
	if fp.Security.TLS.Grade != "" {
		fmt.Fprintf(&b, "<li>TLS grade: <b>%s</b></li>", html.EscapeString(fp.Security.TLS.Grade))
	}
	fmt.Fprintf(&b, "<li>Vulnerabilities found: %d</li>", fp.Security.Vulnerabilities.Count)
	b.WriteString("</ul>\n")

	if report.Warning != "" {
		fmt.Fprintf(&b, "<p><b>Warning:</b> %s</p>\n", html.EscapeString(report.Warning))
	}

	b.WriteString("</body></html>\n")
	return b.String()
}

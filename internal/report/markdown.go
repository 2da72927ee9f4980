package report

import (
	"fmt"
	"strings"

	"github.com/reconctl/reconctl/internal/fingerprint"
	"github.com/reconctl/reconctl/internal/model"
)

// GenerateMarkdown renders report as a Markdown document: target header,
// condensed summary, then one section per fingerprint category.
func GenerateMarkdown(report model.Report) string {
	fp := report.Fingerprint
	summary := fingerprint.BuildSummary(fp)

	var b strings.Builder
	fmt.Fprintf(&b, "# Scan Report: %s\n\n", report.Target.Host)
	fmt.Fprintf(&b, "- **Status:** %s\n", report.Status)
	fmt.Fprintf(&b, "- **Scanned at:** %s\n", report.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Duration:** %s\n\n", report.Duration)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Primary IP: `%s`\n", orNone(summary.PrimaryIP))
	fmt.Fprintf(&b, "- CDN: %s\n", orNone(summary.CDN))
	fmt.Fprintf(&b, "- Server: %s\n", orNone(summary.Server))
	fmt.Fprintf(&b, "- Subdomains: %d\n", summary.SubdomainCount)
	fmt.Fprintf(&b, "- Open ports: %d\n\n", summary.OpenPortCount)

	b.WriteString("## Infrastructure\n\n")
	fmt.Fprintf(&b, "- IPv4: %s\n", joinOrNone(fp.Infrastructure.IPs.IPv4))
	fmt.Fprintf(&b, "- IPv6: %s\n", joinOrNone(fp.Infrastructure.IPs.IPv6))
	fmt.Fprintf(&b, "- Nameservers: %s\n", joinOrNone(fp.Infrastructure.Nameservers))
	fmt.Fprintf(&b, "- Mail servers: %s\n\n", joinOrNone(fp.Infrastructure.MailServers))
	if fp.Infrastructure.Certificate != nil {
		c := fp.Infrastructure.Certificate
		fmt.Fprintf(&b, "- Certificate: issued by `%s`, expires `%s`, fingerprint `%s`\n\n", c.Issuer, c.ValidTo, c.Fingerprint)
	}

	b.WriteString("## Attack Surface\n\n")
	if len(fp.AttackSurface.OpenPorts) > 0 {
		b.WriteString("| Port | Service |\n|---|---|\n")
		for _, p := range fp.AttackSurface.OpenPorts {
			fmt.Fprintf(&b, "| %s | %s |\n", p.Port, orNone(p.Service))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No open ports discovered.\n\n")
	}
	if len(fp.AttackSurface.Subdomains.List) > 0 {
		fmt.Fprintf(&b, "Subdomains (%d): %s\n\n", fp.AttackSurface.Subdomains.Total, strings.Join(fp.AttackSurface.Subdomains.List, ", "))
	}
	if len(fp.AttackSurface.DiscoveredPaths.List) > 0 {
		b.WriteString("Discovered paths:\n\n")
		for _, p := range fp.AttackSurface.DiscoveredPaths.List {
			fmt.Fprintf(&b, "- `%s` (%s)\n", p.Path, p.Kind)
		}
		b.WriteString("\n")
	}
	if len(fp.AttackSurface.DanglingCNAMEs) > 0 {
		b.WriteString("**Dangling CNAMEs (possible subdomain takeover):**\n\n")
		for _, d := range fp.AttackSurface.DanglingCNAMEs {
			fmt.Fprintf(&b, "- `%s` -> `%s` (%s)\n", d.Host, d.CNAME, d.Status)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Technologies\n\n")
	fmt.Fprintf(&b, "- Detected: %s\n", joinOrNone(fp.Technologies.Detected))
	fmt.Fprintf(&b, "- Frameworks: %s\n", joinOrNone(fp.Technologies.Frameworks))
	if fp.Technologies.CMS != "" {
		fmt.Fprintf(&b, "- CMS: %s\n", fp.Technologies.CMS)
	}
	b.WriteString("\n")

	b.WriteString("## Security\n\n")
	if fp.Security.TLS.Grade != "" {
		fmt.Fprintf(&b, "- TLS grade: **%s**\n", fp.Security.TLS.Grade)
	}
	fmt.Fprintf(&b, "- TLS protocols: %s\n", joinOrNone(fp.Security.TLS.Protocols))
	fmt.Fprintf(&b, "- Vulnerabilities found: %d\n", fp.Security.Vulnerabilities.Count)
	for _, f := range fp.Security.Vulnerabilities.Findings {
		fmt.Fprintf(&b, "  - %s\n", f)
	}

	if report.Warning != "" {
		fmt.Fprintf(&b, "\n> **Warning:** %s\n", report.Warning)
	}

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

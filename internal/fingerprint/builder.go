// Package fingerprint implements FingerprintBuilder, the pure function that
// folds a scan's per-stage StageResults into the canonical Fingerprint
// summary, per spec.md §4.6.
package fingerprint

import (
	"sort"
	"strings"

	"github.com/reconctl/reconctl/internal/model"
)

// Build derives a Fingerprint from a completed scan's results. Only stages
// whose Status is "ok" contribute data, per spec.md §4.6's rule; every list
// field is sorted, and technology names are deduplicated case-insensitively
// while preserving the first-seen casing.
func Build(results *model.OrderedResults) model.Fingerprint {
	fp := model.Empty()
	if results == nil {
		return fp
	}

	techCaser := newCaseFolder()

	if r, ok := okResult(results, "dns"); ok {
		fp.Infrastructure.IPs.IPv4 = sortStrings(toStringSlice(r.Fields["ipv4"]))
		fp.Infrastructure.IPs.IPv6 = sortStrings(toStringSlice(r.Fields["ipv6"]))
		fp.Infrastructure.Nameservers = sortStrings(toStringSlice(r.Fields["nameservers"]))
		fp.Infrastructure.MailServers = sortStrings(toStringSlice(r.Fields["mailServers"]))
		fp.Infrastructure.TXTRecords = sortStrings(toStringSlice(r.Fields["txtRecords"]))
		if dc, ok := r.Fields["danglingCNAME"].(map[string]interface{}); ok {
			fp.AttackSurface.DanglingCNAMEs = []model.DanglingCNAME{{
				Host:   toString(dc["host"]),
				CNAME:  toString(dc["cname"]),
				Status: toString(dc["status"]),
			}}
		}
	}

	if r, ok := okResult(results, "certificate"); ok {
		fp.Infrastructure.Certificate = &model.Certificate{
			Issuer:      toString(r.Fields["issuer"]),
			Subject:     toString(r.Fields["subject"]),
			ValidFrom:   toString(r.Fields["validFrom"]),
			ValidTo:     toString(r.Fields["validTo"]),
			Fingerprint: toString(r.Fields["fingerprint"]),
			SANs:        sortStrings(toStringSlice(r.Fields["sans"])),
		}
	}

	if r, ok := okResult(results, "latency"); ok {
		lat := &model.Latency{Traceroute: []string{}}
		if ps, ok := r.Fields["ping"].(model.PingStats); ok {
			lat.Ping = &ps
		}
		fp.Infrastructure.Latency = lat
	}

	if r, ok := okResult(results, "ports"); ok {
		if ports, ok := r.Fields["openPorts"].([]model.OpenPort); ok {
			sorted := append([]model.OpenPort(nil), ports...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Port < sorted[j].Port })
			fp.AttackSurface.OpenPorts = sorted
		}
	}

	if r, ok := okResult(results, "subdomains"); ok {
		list := sortStrings(toStringSlice(r.Aggregated["list"]))
		sources := sortStrings(toStringSlice(r.Aggregated["sources"]))
		fp.AttackSurface.Subdomains = model.SubdomainSet{
			Total:   len(list),
			List:    list,
			Sources: sources,
		}
	}

	if r, ok := okResult(results, "webDiscovery"); ok {
		if list, ok := r.Fields["list"].([]model.PathRecord); ok {
			sorted := append([]model.PathRecord(nil), list...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
			fp.AttackSurface.DiscoveredPaths = model.DiscoveredPaths{Total: len(sorted), List: sorted}
		}
	}

	if r, ok := okResult(results, "http"); ok {
		fp.Technologies.Server = toString(r.Fields["server"])
		fp.Technologies.PoweredBy = toString(r.Fields["poweredBy"])
	}

	if r, ok := okResult(results, "fingerprint"); ok {
		if v := toString(r.Fields["server"]); v != "" {
			fp.Technologies.Server = v
		}
		if v := toString(r.Fields["poweredBy"]); v != "" {
			fp.Technologies.PoweredBy = v
		}
		fp.Technologies.CMS = toString(r.Fields["cms"])
		for _, t := range toStringSlice(r.Fields["detected"]) {
			techCaser.add(t)
		}
		for _, t := range toStringSlice(r.Fields["frameworks"]) {
			techCaser.add(t)
		}
		fp.Technologies.Detected = techCaser.sortedDisplay(toStringSlice(r.Fields["detected"]))
		fp.Technologies.Frameworks = techCaser.sortedDisplay(toStringSlice(r.Fields["frameworks"]))
	}

	if r, ok := okResult(results, "osint"); ok {
		fp.Technologies.OSINT = model.OSINTSummary{
			Emails:   sortStrings(toStringSlice(r.Fields["emails"])),
			Profiles: sortStrings(toStringSlice(r.Fields["profiles"])),
			URLs:     sortStrings(toStringSlice(r.Fields["urls"])),
		}
	}

	if r, ok := okResult(results, "tlsAudit"); ok {
		ciphers, _ := r.Fields["ciphers"].([]model.CipherInfo)
		fp.Security.TLS = model.TLSSummary{
			Grade:     toString(r.Fields["grade"]),
			Protocols: sortStrings(toStringSlice(r.Fields["protocols"])),
			Ciphers:   ciphers,
			Findings:  sortStrings(toStringSlice(r.Fields["findings"])),
		}
	}

	if r, ok := okResult(results, "vulnerability"); ok {
		findings := toStringSlice(r.Fields["findings"])
		fp.Security.Vulnerabilities = model.VulnSummary{
			Count:    len(findings),
			Findings: sortStrings(findings),
		}
	}

	if r, ok := okResult(results, "http"); ok {
		if h, ok := r.Fields["headers"].(model.SecurityHeaders); ok {
			fp.Security.Headers = h
		}
	}

	return fp
}

func okResult(results *model.OrderedResults, stage string) (model.StageResult, bool) {
	r, ok := results.Get(stage)
	if !ok || r.Status != model.StatusOK {
		return model.StageResult{}, false
	}
	return r, true
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toStringSlice(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case nil:
		return nil
	default:
		return nil
	}
}

func sortStrings(ss []string) []string {
	out := append([]string{}, ss...)
	sort.Strings(out)
	return out
}

// caseFolder deduplicates technology names case-insensitively while
// preserving the first-seen casing, per spec.md §4.6.
type caseFolder struct {
	firstSeen map[string]string
}

func newCaseFolder() *caseFolder {
	return &caseFolder{firstSeen: make(map[string]string)}
}

func (c *caseFolder) add(name string) {
	key := strings.ToLower(name)
	if _, ok := c.firstSeen[key]; !ok {
		c.firstSeen[key] = name
	}
}

// sortedDisplay returns the display-cased, deduplicated, sorted-by-lowercase
// form of the given raw names.
func (c *caseFolder) sortedDisplay(raw []string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range raw {
		k := strings.ToLower(r)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.firstSeen[k])
	}
	return out
}

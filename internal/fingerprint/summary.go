package fingerprint

import (
	"strings"

	"github.com/reconctl/reconctl/internal/model"
)

// BuildSummary computes the condensed RowSummary from a Fingerprint,
// independent of Build itself per spec.md §4.6 ("an independent function
// buildSummary(fingerprint)").
func BuildSummary(fp model.Fingerprint) model.RowSummary {
	var primaryIP string
	ips := append([]string{}, fp.Infrastructure.IPs.IPv4...)
	ips = append(ips, fp.Infrastructure.IPs.IPv6...)
	if len(fp.Infrastructure.IPs.IPv4) > 0 {
		primaryIP = fp.Infrastructure.IPs.IPv4[0]
	} else if len(fp.Infrastructure.IPs.IPv6) > 0 {
		primaryIP = fp.Infrastructure.IPs.IPv6[0]
	}

	cdn := ""
	for _, t := range fp.Technologies.Detected {
		if isCDN(t) {
			cdn = t
			break
		}
	}

	var latencyMS float64
	if fp.Infrastructure.Latency != nil && fp.Infrastructure.Latency.Ping != nil {
		latencyMS = fp.Infrastructure.Latency.Ping.AvgMS
	}

	techs := append([]string{}, fp.Technologies.Detected...)
	techs = append(techs, fp.Technologies.Frameworks...)

	return model.RowSummary{
		PrimaryIP:      primaryIP,
		IPAddresses:    ips,
		CDN:            cdn,
		Server:         fp.Technologies.Server,
		LatencyMS:      latencyMS,
		SubdomainCount: fp.AttackSurface.Subdomains.Total,
		OpenPortCount:  len(fp.AttackSurface.OpenPorts),
		Technologies:   techs,
	}
}

var cdnNames = map[string]bool{
	"cloudflare": true, "akamai": true, "fastly": true,
	"amazon cloudfront": true, "sucuri waf": true,
	"imperva incapsula": true, "vercel": true, "netlify": true,
	"google cloud cdn": true, "varnish": true,
}

func isCDN(name string) bool {
	return cdnNames[strings.ToLower(name)]
}

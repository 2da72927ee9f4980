package stages

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

const whoisPort = "43"

// WhoisStage speaks RFC 3912 raw WHOIS directly, grounded on the
// dial-with-timeout idiom in jbouey-msp-flake's sshexec.getConnection
// (internal/sshexec/executor.go), generalized from an SSH handshake to a
// plain-text line protocol against port 43.
//
// Only the primary WHOIS server (defaultWhoisServer, or
// cfg.Tools["whois"].Path as an override) is queried. Following an IANA
// referral to the registrar's authoritative server is deliberately out of
// scope here — it would require a
// second round trip per scan purely to resolve a server name, for a field
// set (registrar, dates, nameservers) the primary server already answers
// for the overwhelming majority of TLDs.
type WhoisStage struct{}

func (WhoisStage) Name() string { return "whois" }

const defaultWhoisServer = "whois.iana.org"

func (WhoisStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	timeout := cfg.StageTimeout("whois")

	server := defaultWhoisServer
	if t, ok := cfg.Tools["whois"]; ok && t.Enabled && t.Path != "" {
		server = t.Path
	}

	raw, err := whoisQuery(ctx, server, target.Host, timeout)
	if err != nil {
		return model.NewError("whois", err)
	}

	createdAt := normalizeWhoisDate(extractField(raw, "Creation Date:"))
	expiresAt := normalizeWhoisDate(firstNonEmpty(
		extractField(raw, "Registry Expiry Date:"),
		extractField(raw, "Expiry Date:"),
		extractField(raw, "Expiration Date:"),
	))

	fields := map[string]interface{}{
		"server":              server,
		"registrar":           extractField(raw, "Registrar:"),
		"registrant":          firstNonEmpty(extractField(raw, "Registrant Organization:"), extractField(raw, "Registrant Name:")),
		"createdAt":           createdAt,
		"expiresAt":           expiresAt,
		"nameservers":         extractAllFields(raw, "Name Server:"),
		"status":              extractAllFields(raw, "Domain Status:"),
		"dnssec":              extractField(raw, "DNSSEC:"),
		"daysUntilExpiration": nil,
		"expirationStatus":    "",
		"raw":                 raw,
	}

	if days, ok := daysUntil(expiresAt); ok {
		fields["daysUntilExpiration"] = days
		fields["expirationStatus"] = expirationStatus(days)
	}

	return model.NewOK(fields)
}

// whoisDateLayouts covers the date formats seen across registry WHOIS
// responses: RFC 3339 (the common case for gTLD registries), and the older
// bare-date/legacy formats some ccTLDs and thin registrars still emit.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// normalizeWhoisDate parses raw against the known WHOIS date layouts and
// re-renders it as RFC 3339 UTC. An unparseable or empty value is returned
// unchanged so the raw signal isn't silently dropped.
func normalizeWhoisDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

// daysUntil returns the whole days between now and an ISO-normalized
// expiry, or false if expiresAt didn't parse.
func daysUntil(expiresAt string) (int, bool) {
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return 0, false
	}
	return int(time.Until(t).Hours() / 24), true
}

// expiringSoonDays is the daysUntilExpiration threshold below which a
// domain is classified "expiring-soon" rather than "ok".
const expiringSoonDays = 30

func expirationStatus(daysUntilExpiration int) string {
	switch {
	case daysUntilExpiration < 0:
		return "expired"
	case daysUntilExpiration <= expiringSoonDays:
		return "expiring-soon"
	default:
		return "ok"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func whoisQuery(ctx context.Context, server, query string, timeout time.Duration) (string, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(server, whoisPort))
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte(query + "\r\n")); err != nil {
		return "", fmt.Errorf("write query to %s: %w", server, err)
	}

	var sb strings.Builder
	reader := bufio.NewReader(conn)
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if sb.Len() > 1<<20 {
			break
		}
	}
	return sb.String(), nil
}

func extractField(raw, prefix string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), strings.ToLower(prefix)) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}

func extractAllFields(raw, prefix string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), strings.ToLower(prefix)) {
			out = append(out, strings.ToLower(strings.TrimSpace(line[len(prefix):])))
		}
	}
	return sortedUnique(out)
}

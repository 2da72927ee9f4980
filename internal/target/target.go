// Package target normalizes user-supplied scan targets (bare hosts,
// host:port, or full URLs) into model.Target, per spec.md §4.1.
package target

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/reconctl/reconctl/internal/model"
)

// Error is the typed error returned for invalid input, per spec.md §7.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// ErrInvalidTarget constructs an InvalidTarget error.
func ErrInvalidTarget(msg string) error {
	return &Error{Code: "InvalidTarget", Message: msg}
}

// Normalize parses raw input into a model.Target. Accepts bare hosts,
// host:port, or full URLs; defaults to https:// when no scheme is given.
// Idempotent: Normalize(Normalize(x).Original) == Normalize(x).
func Normalize(raw string) (model.Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.Target{}, ErrInvalidTarget("empty target")
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return model.Target{}, ErrInvalidTarget(fmt.Sprintf("cannot interpret %q as a host", raw))
	}

	host := strings.ToLower(u.Hostname())
	protocol := strings.ToLower(u.Scheme)
	if protocol == "" {
		protocol = "https"
	}

	port := 0
	if p := u.Port(); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 || parsed > 65535 {
			return model.Target{}, ErrInvalidTarget(fmt.Sprintf("invalid port %q", p))
		}
		port = parsed
	} else {
		port = model.DefaultPort(protocol)
	}

	// Reject hosts that are obviously malformed (e.g. a lone colon).
	if net.ParseIP(host) == nil && !isPlausibleHostname(host) {
		return model.Target{}, ErrInvalidTarget(fmt.Sprintf("invalid hostname %q", host))
	}

	return model.Target{
		Original: trimmed,
		Host:     host,
		Protocol: protocol,
		Port:     port,
		Path:     u.Path,
	}, nil
}

func isPlausibleHostname(host string) bool {
	if host == "" {
		return false
	}
	for _, r := range host {
		if r == '.' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

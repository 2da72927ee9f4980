// Package model holds the data types shared across reconctl's scan pipeline:
// targets, configuration, stage results, fingerprints, reports, and diffs.
package model

// Target is a normalized scan target, produced by internal/target.Normalize.
type Target struct {
	Original string `json:"original"`
	Host     string `json:"host"`
	Protocol string `json:"protocol,omitempty"`
	Port     int    `json:"port,omitempty"`
	Path     string `json:"path,omitempty"`
}

// defaultPorts maps a protocol scheme to its conventional port.
var defaultPorts = map[string]int{
	"https": 443,
	"http":  80,
	"ftp":   21,
	"ssh":   22,
}

// DefaultPort returns the conventional port for a protocol, or 0 if unknown.
func DefaultPort(protocol string) int {
	return defaultPorts[protocol]
}

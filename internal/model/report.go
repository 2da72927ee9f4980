package model

import "time"

// Report is the top-level output of one scan, per spec.md §3. Immutable once
// persisted.
type Report struct {
	ID          string                  `json:"id"`
	Timestamp   time.Time               `json:"timestamp"`
	Target      Target                  `json:"target"`
	Duration    time.Duration           `json:"duration"`
	Status      string                  `json:"status"`
	Results     *OrderedResults         `json:"results"`
	Fingerprint Fingerprint             `json:"fingerprint"`
	Uptime      *UptimeSnapshot         `json:"uptime,omitempty"`
	Warning     string                  `json:"warning,omitempty"`
}

// UptimeSnapshot is attached to a Report when uptime monitoring is active
// for the host.
type UptimeSnapshot struct {
	UpSince       time.Time `json:"upSince"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
	Available     bool      `json:"available"`
}

// HostSummary is the queryable upserted row for one host, per spec.md §3.
type HostSummary struct {
	ID         string      `json:"id"` // == host
	Target     Target      `json:"target"`
	Summary    RowSummary  `json:"summary"`
	Fingerprint Fingerprint `json:"fingerprint"`
	LastScanAt time.Time   `json:"lastScanAt"`
	StorageKey string      `json:"storageKey"`
}

// RowSummary is the condensed per-host row payload.
type RowSummary struct {
	PrimaryIP       string   `json:"primaryIp"`
	IPAddresses     []string `json:"ipAddresses"`
	CDN             string   `json:"cdn"`
	Server          string   `json:"server"`
	LatencyMS       float64  `json:"latencyMs"`
	SubdomainCount  int      `json:"subdomainCount"`
	OpenPortCount   int      `json:"openPortCount"`
	Technologies    []string `json:"technologies"`
}

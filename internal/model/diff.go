package model

import "time"

// Severity classifies a Diff's overall impact, per spec.md §4.6.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank gives the monotonic ordering used by DiffDetector to take the
// max severity across individual findings (spec.md: "monotonic max").
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// MaxSeverity returns whichever of a, b ranks higher; unknown/empty inputs
// rank below SeverityLow.
func MaxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	if a == "" {
		return b
	}
	return a
}

// ChangeSet is one category's change record: either a set diff (Added/Removed)
// or a scalar diff (Old/New), per spec.md §3.
type ChangeSet struct {
	Added   []string    `json:"added,omitempty"`
	Removed []string    `json:"removed,omitempty"`
	Old     interface{} `json:"old,omitempty"`
	New     interface{} `json:"new,omitempty"`
}

// IsEmpty reports whether the change set carries no information, meaning
// the category is omitted from Diff.Changes.
func (c *ChangeSet) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.Added) == 0 && len(c.Removed) == 0 && c.Old == nil && c.New == nil
}

// Diff is the structured change set between two fingerprints, per spec.md §3.
type Diff struct {
	Timestamp      time.Time             `json:"timestamp"`
	PreviousScan   string                `json:"previousScan"`
	CurrentScan    string                `json:"currentScan"`
	Changes        map[string]*ChangeSet `json:"changes"`
	Summary        DiffSummary           `json:"summary"`
}

// DiffSummary is the rollup over Diff.Changes.
type DiffSummary struct {
	TotalChanges              int      `json:"totalChanges"`
	Severity                  Severity `json:"severity"`
	HasInfrastructureChanges  bool     `json:"hasInfrastructureChanges"`
	HasAttackSurfaceChanges   bool     `json:"hasAttackSurfaceChanges"`
	HasSecurityChanges        bool     `json:"hasSecurityChanges"`
}

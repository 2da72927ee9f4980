// Package storage implements StorageManager's three persistence layers —
// L1 per-tool/per-stage artifacts, L2 full reports + index, L3 queryable
// SQLite records — and the diff-then-upsert fold described in spec.md §4.7.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reconctl/reconctl/internal/diff"
	"github.com/reconctl/reconctl/internal/events"
	"github.com/reconctl/reconctl/internal/fingerprint"
	"github.com/reconctl/reconctl/internal/model"
)

// timestampSlug derives the L1/L3 timestamp key from a report's timestamp,
// per spec.md §6's exact L1 layout: "the ISO timestamp with `:` and `.`
// replaced by `-`". It is distinct from report.ID, which is a separate
// monotonic-ms-plus-random-suffix identifier used only for id-keyed lookups
// (GetReport).
func timestampSlug(t time.Time) string {
	iso := t.UTC().Format(time.RFC3339Nano)
	iso = strings.ReplaceAll(iso, ":", "-")
	iso = strings.ReplaceAll(iso, ".", "-")
	return iso
}

// Manager is StorageManager: it owns every persisted artifact for every
// scanned host under BaseDir.
type Manager struct {
	baseDir      string
	historyLimit int
	bus          *events.Bus
	records      *records
	l1           l1Artifacts
	l2           l2Reports
}

// New opens (creating if absent) the storage tree rooted at baseDir,
// including the L3 SQLite database. bus may be nil to disable alert
// emission.
func New(baseDir string, historyLimit int, bus *events.Bus) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	r, err := openRecords(filepath.Join(baseDir, "reconctl.db"))
	if err != nil {
		return nil, err
	}
	l1 := l1Artifacts{baseDir: baseDir}
	return &Manager{
		baseDir:      baseDir,
		historyLimit: historyLimit,
		bus:          bus,
		records:      r,
		l1:           l1,
		l2:           l2Reports{baseDir: baseDir, historyLimit: historyLimit, artifacts: l1},
	}, nil
}

func (m *Manager) Close() error {
	return m.records.Close()
}

// Persist writes a completed Report across all three layers, computing and
// storing a Diff against the host's previous fingerprint first, per the
// "diff computation fold" ordering invariant in spec.md §4.7: diffs must be
// written — and therefore stamped with the incoming report's own
// timestamp — before the new hosts row overwrites the fingerprint the diff
// was computed against.
func (m *Manager) Persist(report model.Report) error {
	host := report.Target.Host
	summary := fingerprint.BuildSummary(report.Fingerprint)
	slug := timestampSlug(report.Timestamp)

	prevFP, hadPrev, err := m.records.getHostFingerprint(host)
	if err != nil {
		return fmt.Errorf("read previous fingerprint: %w", err)
	}

	priorEntries, err := m.l2.readIndex(host)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	previousScan := ""
	if len(priorEntries) > 0 {
		previousScan = priorEntries[0].Timestamp
	}

	var computed *model.Diff
	if hadPrev {
		d := diff.Compute(prevFP, report.Fingerprint, previousScan, slug, report.Timestamp)
		computed = &d
		if err := m.records.insertDiff(host, slug, d); err != nil {
			return fmt.Errorf("write diff: %w", err)
		}
	}

	storageKey := filepath.Join("reports", host, slug+".json")
	if err := m.records.upsertHost(host, report.Target, summary, report.Fingerprint, report.Timestamp, storageKey); err != nil {
		return fmt.Errorf("upsert host: %w", err)
	}

	var stageKeys, toolKeys []string
	for _, stage := range report.Results.Keys() {
		res, _ := report.Results.Get(stage)
		tk, ak, err := m.l1.writeStage(host, slug, stage, res)
		if err != nil {
			return fmt.Errorf("write stage artifacts for %s: %w", stage, err)
		}
		toolKeys = append(toolKeys, tk...)
		if ak != "" {
			stageKeys = append(stageKeys, ak)
		}
		if err := m.records.insertStage(host, stage, slug, res.Status); err != nil {
			return fmt.Errorf("record stage %s: %w", stage, err)
		}
	}

	if _, err := m.l2.persist(host, report, slug, summary, storageKey, stageKeys, toolKeys); err != nil {
		return fmt.Errorf("persist L2 report: %w", err)
	}

	if err := m.records.insertReport(host, slug, report.ID, report.Status, report.Duration, storageKey); err != nil {
		return fmt.Errorf("record report: %w", err)
	}

	seenAt := report.Timestamp.Format(time.RFC3339)
	for _, sub := range report.Fingerprint.AttackSurface.Subdomains.List {
		_ = m.records.upsertSubdomain(host, sub, seenAt)
	}
	for _, p := range report.Fingerprint.AttackSurface.DiscoveredPaths.List {
		_ = m.records.upsertPath(host, p.Path, p.Kind, seenAt)
	}

	if computed != nil && m.bus != nil {
		if rank := severityAtLeastMedium(computed.Summary.Severity); rank {
			m.bus.Emit(events.Alert, events.Payload{
				"target":   host,
				"diff":     *computed,
				"severity": computed.Summary.Severity,
			})
		}
	}

	return nil
}

func severityAtLeastMedium(s model.Severity) bool {
	switch s {
	case model.SeverityMedium, model.SeverityHigh, model.SeverityCritical:
		return true
	default:
		return false
	}
}

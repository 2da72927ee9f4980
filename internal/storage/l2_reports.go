package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/reconctl/reconctl/internal/model"
)

// IndexEntry is one row of reports/<host>/index.json, most-recent first.
type IndexEntry struct {
	Timestamp string   `json:"timestamp"`
	Status    string   `json:"status"`
	ReportKey string   `json:"reportKey"`
	StageKeys []string `json:"stageKeys"`
	ToolKeys  []string `json:"toolKeys"`
	Summary   model.RowSummary `json:"summary"`
}

// l2Reports manages the full-report JSON plus the latest.json mirror and
// index.json per spec.md §4.7's L2 layer.
type l2Reports struct {
	baseDir      string
	historyLimit int
	artifacts    l1Artifacts
}

func (l l2Reports) reportPath(host, timestamp string) string {
	return filepath.Join(l.baseDir, "reports", host, timestamp+".json")
}

func (l l2Reports) latestPath(host string) string {
	return filepath.Join(l.baseDir, "reports", host, "latest.json")
}

func (l l2Reports) indexPath(host string) string {
	return filepath.Join(l.baseDir, "reports", host, "index.json")
}

// readIndex loads reports/<host>/index.json, returning an empty slice if it
// does not yet exist.
func (l l2Reports) readIndex(host string) ([]IndexEntry, error) {
	data, err := os.ReadFile(l.indexPath(host))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// persist writes the full report, refreshes latest.json, prepends an index
// entry, and prunes anything beyond historyLimit. Returns the entries kept.
// timestampSlug is the key for this scan (spec.md §6's "ISO timestamp with
// `:`/`.` replaced by `-`"), distinct from report.ID.
func (l l2Reports) persist(host string, report model.Report, timestampSlug string, summary model.RowSummary, reportKey string, stageKeys, toolKeys []string) ([]IndexEntry, error) {
	if err := writeJSON(l.reportPath(host, timestampSlug), report); err != nil {
		return nil, err
	}
	if err := writeJSON(l.latestPath(host), report); err != nil {
		return nil, err
	}

	entries, err := l.readIndex(host)
	if err != nil {
		return nil, err
	}

	entry := IndexEntry{
		Timestamp: timestampSlug,
		Status:    report.Status,
		ReportKey: reportKey,
		StageKeys: stageKeys,
		ToolKeys:  toolKeys,
		Summary:   summary,
	}
	entries = append([]IndexEntry{entry}, entries...)

	limit := l.historyLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var pruned []IndexEntry
	if len(entries) > limit {
		pruned = entries[limit:]
		entries = entries[:limit]
	}

	if err := writeJSON(l.indexPath(host), entries); err != nil {
		return nil, err
	}

	for _, p := range pruned {
		l.artifacts.prune(host, p.Timestamp)
		_ = os.Remove(l.reportPath(host, p.Timestamp))
	}

	return entries, nil
}

const defaultHistoryLimit = 50

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/reconctl/reconctl/internal/diff"
	"github.com/reconctl/reconctl/internal/model"
)

// ErrReportNotFound is returned by GetReport when no report with the given
// id has ever been persisted.
var ErrReportNotFound = errors.New("storage: report not found")

// ReportSummary is one row of the queryable report listing, per spec.md §6's
// `listReports(opts)` / `getReportsByHost(host, opts)`.
type ReportSummary struct {
	Host      string `json:"host"`
	ID        string `json:"id"`
	Status    string `json:"status"`
	ReportKey string `json:"reportKey"`
}

// ListOptions filters/limits a report listing. A zero Limit means
// unlimited.
type ListOptions struct {
	Host  string
	Limit int
}

// GetReport loads a previously persisted report by id, locating its host
// and timestampSlug via the L3 reports table's report_id column (report ids
// are globally unique — a monotonic timestamp plus random suffix, per
// spec.md §4.5 — so no host is needed by the caller).
func (m *Manager) GetReport(id string) (model.Report, error) {
	host, slug, ok, err := m.records.findReportLocation(id)
	if err != nil {
		return model.Report{}, fmt.Errorf("look up report host: %w", err)
	}
	if !ok {
		return model.Report{}, ErrReportNotFound
	}
	data, err := os.ReadFile(m.l2.reportPath(host, slug))
	if os.IsNotExist(err) {
		return model.Report{}, ErrReportNotFound
	}
	if err != nil {
		return model.Report{}, err
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return model.Report{}, err
	}
	return report, nil
}

// ListReports returns report summaries across all hosts (or one host, if
// opts.Host is set), most recent first.
func (m *Manager) ListReports(opts ListOptions) ([]ReportSummary, error) {
	return m.records.listReports(opts.Host, opts.Limit)
}

// GetReportsByHost is ListReports scoped to a single host.
func (m *Manager) GetReportsByHost(host string, opts ListOptions) ([]ReportSummary, error) {
	opts.Host = host
	return m.ListReports(opts)
}

// CompareReports loads two previously persisted reports by id and computes
// the Diff between their fingerprints. Comparing reports from different
// hosts is allowed but the resulting diff carries limited meaning, per
// spec.md §9's Open Question resolution.
func (m *Manager) CompareReports(id1, id2 string) (model.Diff, error) {
	r1, err := m.GetReport(id1)
	if err != nil {
		return model.Diff{}, fmt.Errorf("load %s: %w", id1, err)
	}
	r2, err := m.GetReport(id2)
	if err != nil {
		return model.Diff{}, fmt.Errorf("load %s: %w", id2, err)
	}
	return diff.Compute(r1.Fingerprint, r2.Fingerprint, r1.ID, r2.ID, r2.Timestamp), nil
}

func (r *records) listReports(host string, limit int) ([]ReportSummary, error) {
	query := `SELECT host, report_id, status, report_key FROM reports`
	args := []interface{}{}
	if host != "" {
		query += ` WHERE host = ?`
		args = append(args, host)
	}
	query += ` ORDER BY timestamp DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.Host, &s.ID, &s.Status, &s.ReportKey); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

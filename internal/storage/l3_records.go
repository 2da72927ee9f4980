package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reconctl/reconctl/internal/model"
)

// records is the L3 structured, queryable layer: one SQLite database per
// storage root holding hosts/reports/stages/subdomains/paths/diffs tables,
// per spec.md §4.7. Grounded on the WAL-mode sql.Open + CREATE TABLE IF NOT
// EXISTS idiom in jbouey-msp-flake's transport.OfflineQueue
// (agent/internal/transport/offline.go), adapted from the pure-Go
// modernc.org/sqlite driver rather than the cgo mattn/go-sqlite3 that file
// imports — no cgo toolchain is assumed available wherever reconctl runs.
type records struct {
	db *sql.DB
}

func openRecords(path string) (*records, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open records db: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &records{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *records) Close() error { return r.db.Close() }

func (r *records) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hosts (
			host TEXT PRIMARY KEY,
			target_json TEXT NOT NULL,
			summary_json TEXT NOT NULL,
			fingerprint_json TEXT NOT NULL,
			last_scan_at TEXT NOT NULL,
			storage_key TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			host TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			report_id TEXT NOT NULL,
			status TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			report_key TEXT NOT NULL,
			PRIMARY KEY (host, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS stages (
			host TEXT NOT NULL,
			stage TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (host, stage, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS subdomains (
			host TEXT NOT NULL,
			subdomain TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			PRIMARY KEY (host, subdomain)
		)`,
		`CREATE TABLE IF NOT EXISTS paths (
			host TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			PRIMARY KEY (host, path)
		)`,
		`CREATE TABLE IF NOT EXISTS diffs (
			host TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			severity TEXT NOT NULL,
			total_changes INTEGER NOT NULL,
			changes_json TEXT NOT NULL,
			PRIMARY KEY (host, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_host ON reports(host)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_report_id ON reports(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_host_stage ON stages(host, stage)`,
		`CREATE INDEX IF NOT EXISTS idx_diffs_host ON diffs(host)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// upsert attempts the single-statement SQLite UPSERT form first; if the
// driver or schema rejects it (e.g. an older SQLite lacking the ON CONFLICT
// clause), it falls back to a plain INSERT OR REPLACE, matching spec.md
// §4.7's "attempt insert, on conflict update, falling back to replace".
func (r *records) upsert(upsertSQL, replaceSQL string, args ...interface{}) error {
	if _, err := r.db.Exec(upsertSQL, args...); err != nil {
		_, err2 := r.db.Exec(replaceSQL, args...)
		return err2
	}
	return nil
}

func (r *records) upsertHost(host string, target model.Target, summary model.RowSummary, fp model.Fingerprint, lastScanAt time.Time, storageKey string) error {
	targetJSON, err := json.Marshal(target)
	if err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	fpJSON, err := json.Marshal(fp)
	if err != nil {
		return err
	}

	return r.upsert(
		`INSERT INTO hosts (host, target_json, summary_json, fingerprint_json, last_scan_at, storage_key)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(host) DO UPDATE SET
		   target_json=excluded.target_json,
		   summary_json=excluded.summary_json,
		   fingerprint_json=excluded.fingerprint_json,
		   last_scan_at=excluded.last_scan_at,
		   storage_key=excluded.storage_key`,
		`INSERT OR REPLACE INTO hosts (host, target_json, summary_json, fingerprint_json, last_scan_at, storage_key)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		host, string(targetJSON), string(summaryJSON), string(fpJSON), lastScanAt.Format(time.RFC3339), storageKey,
	)
}

func (r *records) getHostFingerprint(host string) (model.Fingerprint, bool, error) {
	var fpJSON string
	err := r.db.QueryRow(`SELECT fingerprint_json FROM hosts WHERE host = ?`, host).Scan(&fpJSON)
	if err == sql.ErrNoRows {
		return model.Fingerprint{}, false, nil
	}
	if err != nil {
		return model.Fingerprint{}, false, err
	}
	var fp model.Fingerprint
	if err := json.Unmarshal([]byte(fpJSON), &fp); err != nil {
		return model.Fingerprint{}, false, err
	}
	return fp, true, nil
}

// insertReport records one scan row keyed by (host, timestamp) per spec.md
// §6's "reports.id=host|timestamp", carrying report.ID alongside as
// report_id so GetReport(id) can resolve an id to its (host, timestamp).
func (r *records) insertReport(host, timestamp, reportID, status string, duration time.Duration, reportKey string) error {
	return r.upsert(
		`INSERT INTO reports (host, timestamp, report_id, status, duration_ms, report_key) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(host, timestamp) DO UPDATE SET report_id=excluded.report_id, status=excluded.status, duration_ms=excluded.duration_ms, report_key=excluded.report_key`,
		`INSERT OR REPLACE INTO reports (host, timestamp, report_id, status, duration_ms, report_key) VALUES (?, ?, ?, ?, ?, ?)`,
		host, timestamp, reportID, status, duration.Milliseconds(), reportKey,
	)
}

// findReportLocation resolves a report.ID to the (host, timestampSlug) pair
// its row was last written under, for GetReport's id-keyed lookup.
func (r *records) findReportLocation(reportID string) (host, timestamp string, ok bool, err error) {
	err = r.db.QueryRow(`SELECT host, timestamp FROM reports WHERE report_id = ?`, reportID).Scan(&host, &timestamp)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return host, timestamp, true, nil
}

func (r *records) insertStage(host, stage, timestamp string, status model.StageStatus) error {
	return r.upsert(
		`INSERT INTO stages (host, stage, timestamp, status) VALUES (?, ?, ?, ?)
		 ON CONFLICT(host, stage, timestamp) DO UPDATE SET status=excluded.status`,
		`INSERT OR REPLACE INTO stages (host, stage, timestamp, status) VALUES (?, ?, ?, ?)`,
		host, stage, timestamp, string(status),
	)
}

func (r *records) upsertSubdomain(host, subdomain, seenAt string) error {
	return r.upsert(
		`INSERT INTO subdomains (host, subdomain, first_seen, last_seen) VALUES (?, ?, ?, ?)
		 ON CONFLICT(host, subdomain) DO UPDATE SET last_seen=excluded.last_seen`,
		`INSERT OR REPLACE INTO subdomains (host, subdomain, first_seen, last_seen) VALUES (?, ?, ?, ?)`,
		host, subdomain, seenAt, seenAt,
	)
}

func (r *records) upsertPath(host, path, kind, seenAt string) error {
	return r.upsert(
		`INSERT INTO paths (host, path, kind, first_seen, last_seen) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(host, path) DO UPDATE SET last_seen=excluded.last_seen, kind=excluded.kind`,
		`INSERT OR REPLACE INTO paths (host, path, kind, first_seen, last_seen) VALUES (?, ?, ?, ?, ?)`,
		host, path, kind, seenAt, seenAt,
	)
}

func (r *records) insertDiff(host, timestamp string, diff model.Diff) error {
	changesJSON, err := json.Marshal(diff.Changes)
	if err != nil {
		return err
	}
	return r.upsert(
		`INSERT INTO diffs (host, timestamp, severity, total_changes, changes_json) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(host, timestamp) DO UPDATE SET severity=excluded.severity, total_changes=excluded.total_changes, changes_json=excluded.changes_json`,
		`INSERT OR REPLACE INTO diffs (host, timestamp, severity, total_changes, changes_json) VALUES (?, ?, ?, ?, ?)`,
		host, timestamp, string(diff.Summary.Severity), diff.Summary.TotalChanges, string(changesJSON),
	)
}

// Package target implements TargetManager, the CRUD facade over the set of
// hosts the scheduler sweeps, per spec.md §4.9. SQLite-backed with the same
// sql.Open/WAL idiom as internal/session and internal/storage's L3 layer.
package target

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reconctl/reconctl/internal/model"
)

// ErrAlreadyExists is returned by Add when host is already registered.
var ErrAlreadyExists = errors.New("target already exists")

// ErrNotFound is returned by operations on an unregistered host.
var ErrNotFound = errors.New("target not found")

// Record is one managed target: its normalized Target plus scheduling and
// last-scan metadata.
type Record struct {
	Host         string       `json:"host"`
	Target       model.Target `json:"target"`
	Enabled      bool         `json:"enabled"`
	Schedule     string       `json:"schedule,omitempty"` // cron expression; empty = sweep-only
	LastScanAt   *time.Time   `json:"lastScanAt,omitempty"`
	LastReportID string       `json:"lastReportId,omitempty"`
	LastStatus   string       `json:"lastStatus,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Manager is TargetManager.
type Manager struct {
	db *sql.DB
}

// Open opens (creating if absent) the target store at path.
func Open(path string) (*Manager, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open target store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS targets (
		host TEXT PRIMARY KEY,
		target_json TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		schedule TEXT NOT NULL DEFAULT '',
		last_scan_at TEXT,
		last_report_id TEXT,
		last_status TEXT,
		created_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate targets table: %w", err)
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error { return m.db.Close() }

// Add registers a new target. Fails ErrAlreadyExists if the host is already
// registered (id == host, per spec.md §4.9).
func (m *Manager) Add(ctx context.Context, t model.Target, schedule string) (*Record, error) {
	if _, err := m.Get(ctx, t.Host); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	targetJSON, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	rec := &Record{Host: t.Host, Target: t, Enabled: true, Schedule: schedule, CreatedAt: time.Now()}

	_, err = m.db.ExecContext(ctx,
		`INSERT INTO targets (host, target_json, enabled, schedule, created_at) VALUES (?, ?, 1, ?, ?)`,
		rec.Host, string(targetJSON), schedule, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert target: %w", err)
	}
	return rec, nil
}

// Remove deletes a target. Idempotent: removing an absent host is a no-op.
func (m *Manager) Remove(ctx context.Context, host string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM targets WHERE host = ?`, host)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}

// Update merges schedule/enabled changes into an existing target.
// Idempotent: passing the current values is a no-op.
func (m *Manager) Update(ctx context.Context, host string, enabled *bool, schedule *string) (*Record, error) {
	rec, err := m.Get(ctx, host)
	if err != nil {
		return nil, err
	}
	if enabled != nil {
		rec.Enabled = *enabled
	}
	if schedule != nil {
		rec.Schedule = *schedule
	}

	_, err = m.db.ExecContext(ctx,
		`UPDATE targets SET enabled = ?, schedule = ? WHERE host = ?`,
		boolToInt(rec.Enabled), rec.Schedule, host,
	)
	if err != nil {
		return nil, fmt.Errorf("update target: %w", err)
	}
	return rec, nil
}

// UpdateScanMetadata records the outcome of a completed scan against host.
func (m *Manager) UpdateScanMetadata(ctx context.Context, host string, reportID, status string, scannedAt time.Time) error {
	_, err := m.db.ExecContext(ctx,
		`UPDATE targets SET last_scan_at = ?, last_report_id = ?, last_status = ? WHERE host = ?`,
		scannedAt.Format(time.RFC3339Nano), reportID, status, host,
	)
	if err != nil {
		return fmt.Errorf("update scan metadata: %w", err)
	}
	return nil
}

// Get returns the record for host.
func (m *Manager) Get(ctx context.Context, host string) (*Record, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT host, target_json, enabled, schedule, last_scan_at, last_report_id, last_status, created_at FROM targets WHERE host = ?`, host)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns every target, optionally including disabled ones.
func (m *Manager) List(ctx context.Context, includeDisabled bool) ([]*Record, error) {
	query := `SELECT host, target_json, enabled, schedule, last_scan_at, last_report_id, last_status, created_at FROM targets`
	if !includeDisabled {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY host`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scannable) (*Record, error) {
	var rec Record
	var targetJSON, createdAt string
	var enabledInt int
	var lastScanAt, lastReportID, lastStatus sql.NullString

	if err := row.Scan(&rec.Host, &targetJSON, &enabledInt, &rec.Schedule, &lastScanAt, &lastReportID, &lastStatus, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(targetJSON), &rec.Target); err != nil {
		return nil, fmt.Errorf("decode target: %w", err)
	}
	rec.Enabled = enabledInt != 0
	rec.LastReportID = lastReportID.String
	rec.LastStatus = lastStatus.String

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if lastScanAt.Valid && lastScanAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, lastScanAt.String)
		if err != nil {
			return nil, err
		}
		rec.LastScanAt = &t
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package session implements SessionStore, the browser-session persistence
// surface for reconctl's web UI, per spec.md §4.8. It is a separate but
// analogous SQLite-backed store to internal/storage's L3 records layer —
// same sql.Open/WAL/migrate idiom grounded on jbouey-msp-flake's
// transport.OfflineQueue, its own database file since sessions churn far
// faster than scan history and have an unrelated retention policy.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Update when the target session does not exist.
var ErrNotFound = errors.New("session not found")

const defaultDuration = 24 * time.Hour

// Session is one authenticated browser session record.
type Session struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IP        string                 `json:"ip,omitempty"`
	UserAgent string                 `json:"userAgent,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	ExpiresAt time.Time              `json:"expiresAt"`
}

// ValidateResult is the outcome of Store.Validate.
type ValidateResult struct {
	Valid   bool
	Session *Session
	Reason  string // "no id" | "not found" | "expired" | ""
}

// Store is SessionStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the session store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		metadata_json TEXT NOT NULL,
		ip TEXT,
		user_agent TEXT,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sessions table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sessions index: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Create generates a random session id, inserts the record with
// expiresAt = now + duration (default 24h), and returns it.
func (s *Store) Create(ctx context.Context, userID string, metadata map[string]interface{}, ip, ua string, duration time.Duration) (*Session, error) {
	if duration <= 0 {
		duration = defaultDuration
	}
	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Metadata:  metadata,
		IP:        ip,
		UserAgent: ua,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}

	metaJSON, err := marshalMetadata(sess.Metadata)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, metadata_json, ip, user_agent, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, metaJSON, sess.IP, sess.UserAgent, sess.CreatedAt.Format(time.RFC3339Nano), sess.ExpiresAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Validate is authoritative: it reports expired even if the background
// cleanup sweep has not yet destroyed the row, and destroys it on the way
// out so a stale row never validates twice.
func (s *Store) Validate(ctx context.Context, id string) (ValidateResult, error) {
	if id == "" {
		return ValidateResult{Reason: "no id"}, nil
	}
	sess, err := s.scanOne(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ValidateResult{Reason: "not found"}, nil
	}
	if err != nil {
		return ValidateResult{}, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.Destroy(ctx, id)
		return ValidateResult{Reason: "expired"}, nil
	}
	return ValidateResult{Valid: true, Session: sess}, nil
}

// Get returns the record for id with no expiry side effect, or nil.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.scanOne(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

// Update merges patch into the session's metadata.
func (s *Store) Update(ctx context.Context, id string, patch map[string]interface{}) (*Session, error) {
	sess, err := s.scanOne(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.Metadata == nil {
		sess.Metadata = map[string]interface{}{}
	}
	for k, v := range patch {
		sess.Metadata[k] = v
	}
	metaJSON, err := marshalMetadata(sess.Metadata)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET metadata_json = ? WHERE id = ?`, metaJSON, id); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

// Destroy deletes the session, reporting whether a row existed.
func (s *Store) Destroy(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("destroy session: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DestroyUserSessions deletes every session belonging to userID, returning
// the count removed.
func (s *Store) DestroyUserSessions(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("destroy user sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetUserSessions returns a user's currently active sessions, destroying
// any expired rows it encounters along the way.
func (s *Store) GetUserSessions(ctx context.Context, userID string) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, metadata_json, ip, user_agent, created_at, expires_at FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user sessions: %w", err)
	}
	defer rows.Close()

	var active []*Session
	var expiredIDs []string
	now := time.Now()
	for rows.Next() {
		sess, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		if now.After(sess.ExpiresAt) {
			expiredIDs = append(expiredIDs, sess.ID)
			continue
		}
		active = append(active, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range expiredIDs {
		_, _ = s.Destroy(ctx, id)
	}
	return active, nil
}

// CleanupExpired scans up to 1000 rows and destroys expired ones, returning
// the count removed. Intended to be called periodically by a background job
// (see Store.RunCleanupLoop); Validate remains authoritative between runs.
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE expires_at < ? LIMIT 1000`, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("scan expired sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if existed, err := s.Destroy(ctx, id); err == nil && existed {
			count++
		}
	}
	return count, nil
}

func (s *Store) scanOne(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, metadata_json, ip, user_agent, created_at, expires_at FROM sessions WHERE id = ?`, id)
	return scanRowSingle(row)
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRow(rows *sql.Rows) (*Session, error) {
	return scanRowSingle(rows)
}

func scanRowSingle(row scannable) (*Session, error) {
	var sess Session
	var metaJSON, createdAt, expiresAt string
	if err := row.Scan(&sess.ID, &sess.UserID, &metaJSON, &sess.IP, &sess.UserAgent, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	if metaJSON != "" && metaJSON != "null" {
		if err := json.Unmarshal([]byte(metaJSON), &sess.Metadata); err != nil {
			return nil, fmt.Errorf("decode session metadata: %w", err)
		}
	}
	var err error
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, err
	}
	return &sess, nil
}

func marshalMetadata(m map[string]interface{}) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

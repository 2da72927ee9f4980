package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndValidate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "user-1", map[string]interface{}{"role": "admin"}, "1.2.3.4", "curl/8", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := s.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid || result.Session == nil {
		t.Fatalf("Validate = %+v, want valid", result)
	}
	if result.Session.Metadata["role"] != "admin" {
		t.Errorf("metadata not preserved: %+v", result.Session.Metadata)
	}
}

func TestValidate_ExpiredIsAuthoritativeEvenWithoutSweep(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "user-2", nil, "", "", -time.Minute)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := s.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid || result.Reason != "expired" {
		t.Fatalf("Validate = %+v, want reason=expired", result)
	}

	// The expired row must also be gone now (destroyed on the way out).
	again, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again != nil {
		t.Error("expected expired session to be destroyed by Validate")
	}
}

func TestValidate_NoIDAndNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if r, _ := s.Validate(ctx, ""); r.Reason != "no id" {
		t.Errorf("reason = %q, want no id", r.Reason)
	}
	if r, _ := s.Validate(ctx, "nonexistent"); r.Reason != "not found" {
		t.Errorf("reason = %q, want not found", r.Reason)
	}
}

func TestUpdate_MergesMetadataAndFailsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, _ := s.Create(ctx, "user-3", map[string]interface{}{"a": "1"}, "", "", 0)
	updated, err := s.Update(ctx, sess.ID, map[string]interface{}{"b": "2"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Metadata["a"] != "1" || updated.Metadata["b"] != "2" {
		t.Errorf("metadata after merge = %+v", updated.Metadata)
	}

	if _, err := s.Update(ctx, "missing", map[string]interface{}{}); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDestroyUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, "user-4", nil, "", "", 0)
	s.Create(ctx, "user-4", nil, "", "", 0)
	s.Create(ctx, "other", nil, "", "", 0)

	n, err := s.DestroyUserSessions(ctx, "user-4")
	if err != nil {
		t.Fatalf("DestroyUserSessions: %v", err)
	}
	if n != 2 {
		t.Errorf("destroyed = %d, want 2", n)
	}

	remaining, err := s.GetUserSessions(ctx, "other")
	if err != nil {
		t.Fatalf("GetUserSessions: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("other user's sessions = %d, want 1", len(remaining))
	}
}

func TestCleanupExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, "user-5", nil, "", "", -time.Minute)
	s.Create(ctx, "user-5", nil, "", "", time.Hour)

	n, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned = %d, want 1", n)
	}
}

package target

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "targets.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestAdd_DuplicateFails(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	tgt := model.Target{Original: "example.com", Host: "example.com", Protocol: "https"}

	if _, err := m.Add(ctx, tgt, ""); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := m.Add(ctx, tgt, ""); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second Add err = %v, want ErrAlreadyExists", err)
	}
}

func TestRemove_IsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.Remove(ctx, "never-added.example.com"); err != nil {
		t.Errorf("Remove on absent host: %v", err)
	}
}

func TestList_ExcludesDisabledByDefault(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	m.Add(ctx, model.Target{Host: "a.example.com"}, "")
	m.Add(ctx, model.Target{Host: "b.example.com"}, "")
	disabled := false
	m.Update(ctx, "b.example.com", &disabled, nil)

	enabledOnly, err := m.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(enabledOnly) != 1 || enabledOnly[0].Host != "a.example.com" {
		t.Errorf("enabled-only list = %+v", enabledOnly)
	}

	all, err := m.List(ctx, true)
	if err != nil {
		t.Fatalf("List(includeDisabled): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("full list length = %d, want 2", len(all))
	}
}

func TestUpdateScanMetadata(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	m.Add(ctx, model.Target{Host: "c.example.com"}, "")

	if err := m.UpdateScanMetadata(ctx, "c.example.com", "r1", "completed", time.Now()); err != nil {
		t.Fatalf("UpdateScanMetadata: %v", err)
	}
	rec, err := m.Get(ctx, "c.example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.LastReportID != "r1" || rec.LastStatus != "completed" || rec.LastScanAt == nil {
		t.Errorf("rec after metadata update = %+v", rec)
	}
}

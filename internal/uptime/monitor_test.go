package uptime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStart_PollsImmediatelyAndMarksAvailable(t *testing.T) {
	var calls int32
	checker := func(ctx context.Context, host string) bool {
		atomic.AddInt32(&calls, 1)
		return true
	}
	m := New(checker, time.Hour)
	defer m.Stop("example.com")

	if err := m.Start(context.Background(), "example.com"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap, ok := m.Status("example.com")
	if !ok {
		t.Fatal("expected host to be monitored")
	}
	if !snap.Available {
		t.Error("expected snapshot.Available = true after a successful poll")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("checker calls = %d, want 1 (immediate poll on Start)", calls)
	}
}

func TestStart_RejectsDuplicateHost(t *testing.T) {
	m := New(func(ctx context.Context, host string) bool { return true }, time.Hour)
	defer m.Stop("example.com")

	if err := m.Start(context.Background(), "example.com"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := m.Start(context.Background(), "example.com"); err != ErrAlreadyMonitored {
		t.Errorf("second Start err = %v, want ErrAlreadyMonitored", err)
	}
}

func TestStop_RemovesMonitorState(t *testing.T) {
	m := New(func(ctx context.Context, host string) bool { return true }, time.Hour)
	if err := m.Start(context.Background(), "example.com"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop("example.com"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, ok := m.Status("example.com"); ok {
		t.Error("expected Status to report not-monitored after Stop")
	}
	if err := m.Stop("example.com"); err != ErrNotMonitored {
		t.Errorf("second Stop err = %v, want ErrNotMonitored", err)
	}
}

func TestStatus_UnavailableClearsUpSince(t *testing.T) {
	up := int32(1)
	checker := func(ctx context.Context, host string) bool { return atomic.LoadInt32(&up) == 1 }
	m := New(checker, time.Hour)
	defer m.Stop("example.com")

	if err := m.Start(context.Background(), "example.com"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	atomic.StoreInt32(&up, 0)
	m.pollOnce(context.Background(), "example.com", m.hosts["example.com"])

	snap, _ := m.Status("example.com")
	if snap.Available {
		t.Error("expected Available = false after a failing poll")
	}
	if !snap.UpSince.IsZero() {
		t.Error("expected UpSince to be cleared once the host is unavailable")
	}
}

package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/events"
	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/target"
)

func newTestTargets(t *testing.T) *target.Manager {
	t.Helper()
	tm, err := target.Open(filepath.Join(t.TempDir(), "targets.db"))
	if err != nil {
		t.Fatalf("target.Open: %v", err)
	}
	t.Cleanup(func() { tm.Close() })
	return tm
}

func TestSweep_EmitsNoActiveTargetsWhenEmpty(t *testing.T) {
	tm := newTestTargets(t)
	bus := events.New()

	var got atomic.Bool
	bus.Subscribe(events.NoActiveTargets, func(p events.Payload) { got.Store(true) })

	m := New(tm, func(ctx context.Context, tgt model.Target) (model.Report, error) {
		t.Fatal("scan should not be called with no targets")
		return model.Report{}, nil
	}, bus, nil, 2)

	m.sweep(context.Background())

	time.Sleep(50 * time.Millisecond)
	if !got.Load() {
		t.Error("expected no-active-targets event")
	}
}

func TestSweep_RunsEachTargetAndEmitsCompleted(t *testing.T) {
	tm := newTestTargets(t)
	ctx := context.Background()
	tm.Add(ctx, model.Target{Host: "a.example.com"}, "")
	tm.Add(ctx, model.Target{Host: "b.example.com"}, "")

	bus := events.New()
	var completedCount int32
	var mu sync.Mutex
	var completedHosts []string
	bus.Subscribe(events.Completed, func(p events.Payload) {
		mu.Lock()
		completedHosts = append(completedHosts, p["target"].(string))
		mu.Unlock()
		atomic.AddInt32(&completedCount, 1)
	})

	m := New(tm, func(ctx context.Context, tgt model.Target) (model.Report, error) {
		return model.Report{ID: "r-" + tgt.Host, Status: "completed"}, nil
	}, bus, nil, 2)

	m.sweep(ctx)

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&completedCount) != 2 {
		t.Errorf("completed events = %d, want 2", completedCount)
	}

	rec, err := tm.Get(ctx, "a.example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.LastReportID != "r-a.example.com" {
		t.Errorf("lastReportId = %q", rec.LastReportID)
	}
}

func TestSweep_TargetErrorDoesNotStopOthers(t *testing.T) {
	tm := newTestTargets(t)
	ctx := context.Background()
	tm.Add(ctx, model.Target{Host: "fails.example.com"}, "")
	tm.Add(ctx, model.Target{Host: "ok.example.com"}, "")

	bus := events.New()
	var errCount, okCount int32
	bus.Subscribe(events.TargetError, func(p events.Payload) { atomic.AddInt32(&errCount, 1) })
	bus.Subscribe(events.Completed, func(p events.Payload) { atomic.AddInt32(&okCount, 1) })

	m := New(tm, func(ctx context.Context, tgt model.Target) (model.Report, error) {
		if tgt.Host == "fails.example.com" {
			return model.Report{}, errSentinel
		}
		return model.Report{ID: "ok", Status: "completed"}, nil
	}, bus, nil, 2)

	m.sweep(ctx)

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&errCount) != 1 || atomic.LoadInt32(&okCount) != 1 {
		t.Errorf("errCount=%d okCount=%d, want 1/1", errCount, okCount)
	}
}

var errSentinel = &sentinelErr{}

type sentinelErr struct{}

func (*sentinelErr) Error() string { return "scan failed" }

func TestSweep_SkipsOverlappingTick(t *testing.T) {
	tm := newTestTargets(t)
	ctx := context.Background()
	tm.Add(ctx, model.Target{Host: "slow.example.com"}, "")

	bus := events.New()
	var warnCount int32
	bus.Subscribe(events.SchedulerWarning, func(p events.Payload) { atomic.AddInt32(&warnCount, 1) })

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	m := New(tm, func(ctx context.Context, tgt model.Target) (model.Report, error) {
		started <- struct{}{}
		<-release
		return model.Report{ID: "r", Status: "completed"}, nil
	}, bus, nil, 1)

	go m.sweep(ctx)
	<-started

	m.sweep(ctx) // should be skipped: first sweep still in flight
	close(release)

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&warnCount) != 1 {
		t.Errorf("warnCount = %d, want 1 (overlap skipped)", warnCount)
	}
}

package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/reconctl/reconctl/internal/events"
)

// Progress writes human-readable scan progress to w, subscribing to the
// event bus instead of being called directly by the orchestrator. Grounded
// on the teacher's output.Progress (Stage/Detail/Warn/Complete), adapted
// from a closed interface the engine calls into to an events.Handler that
// the CLI attaches once at startup.
type Progress struct {
	w       io.Writer
	verbose bool
	silent  bool
	mu      sync.Mutex
	start   time.Time
}

// NewProgress creates a progress reporter and subscribes it to bus.
func NewProgress(bus *events.Bus, w io.Writer, verbose, silent bool) *Progress {
	p := &Progress{w: w, verbose: verbose, silent: silent, start: time.Now()}
	if bus == nil {
		return p
	}

	bus.Subscribe(events.SweepStarted, func(pl events.Payload) {
		p.println(fmt.Sprintf("Sweeping %v targets...", pl["targetCount"]))
	})
	bus.Subscribe(events.SweepCompleted, func(pl events.Payload) {
		p.println(fmt.Sprintf("Sweep complete: %v succeeded, %v failed", pl["succeeded"], pl["failed"]))
	})
	bus.Subscribe(events.Completed, func(pl events.Payload) {
		p.detail(fmt.Sprintf("%v finished in %v", pl["target"], pl["duration"]))
	})
	bus.Subscribe(events.TargetError, func(pl events.Payload) {
		p.warn(fmt.Sprintf("%v: %v", pl["target"], pl["reason"]))
	})
	bus.Subscribe(events.DependencyMissing, func(pl events.Payload) {
		p.warn(fmt.Sprintf("tool %v not found: %v", pl["tool"], pl["installGuide"]))
	})
	bus.Subscribe(events.Alert, func(pl events.Payload) {
		p.println(fmt.Sprintf("! alert: %v (severity %v)", pl["target"], pl["severity"]))
	})
	bus.Subscribe(events.NoActiveTargets, func(pl events.Payload) {
		p.println("no active targets to sweep")
	})

	return p
}

// Stage prints a stage header like "[1/15] Running dns..."
func (p *Progress) Stage(num, total int, msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%d/%d] %s\n", num, total, msg)
}

func (p *Progress) detail(msg string) {
	if !p.verbose || p.silent {
		return
	}
	p.println("  " + msg)
}

func (p *Progress) warn(msg string) {
	if p.silent {
		return
	}
	p.println("  ! " + msg)
}

func (p *Progress) println(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, msg)
}

// Complete prints the elapsed duration since the reporter was created.
func (p *Progress) Complete() {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\nCompleted in %.1fs\n", time.Since(p.start).Seconds())
}

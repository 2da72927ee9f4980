// Package scheduler implements SchedulerManager: a cron-driven sweep over
// every enabled target, per spec.md §4.9. Cron scheduling is delegated to
// robfig/cron/v3 rather than hand-parsed intervals — the pack's one real
// cron dependency, and exactly the "host plugin registry" spec.md allows
// falling back from when none is wired; here one always is.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/reconctl/reconctl/internal/events"
	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/target"
)

// ScanFunc runs one scan to completion and returns the resulting report (or
// an error), independent of how the orchestrator is wired.
type ScanFunc func(ctx context.Context, t model.Target) (model.Report, error)

// Manager is SchedulerManager.
type Manager struct {
	targets     *target.Manager
	scan        ScanFunc
	bus         *events.Bus
	log         *logrus.Logger
	concurrency int

	cron     *cron.Cron
	entryID  cron.EntryID
	sweeping int32 // atomic: 1 while a sweep is in flight
}

// New constructs a Manager. concurrency bounds how many scans within one
// sweep may run at once (spec.md §5: "the limit is strict").
func New(targets *target.Manager, scan ScanFunc, bus *events.Bus, log *logrus.Logger, concurrency int) *Manager {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		targets:     targets,
		scan:        scan,
		bus:         bus,
		log:         log,
		concurrency: concurrency,
		cron:        cron.New(),
	}
}

// Start registers the sweep job at the given cron spec (standard 5-field
// cron syntax) and begins running it. Emits scheduler-started.
func (m *Manager) Start(ctx context.Context, spec string) error {
	id, err := m.cron.AddFunc(spec, func() { m.sweep(ctx) })
	if err != nil {
		return err
	}
	m.entryID = id
	m.cron.Start()
	m.emit(events.SchedulerStarted, events.Payload{"spec": spec})
	return nil
}

// Stop halts the cron dispatcher and waits for any in-flight jobs to finish.
// Emits scheduler-stopped.
func (m *Manager) Stop() {
	stopCtx := m.cron.Stop()
	<-stopCtx.Done()
	m.emit(events.SchedulerStopped, events.Payload{})
}

// sweep runs one pass over every enabled target. The scheduler never stacks
// sweeps (spec.md §5): if a sweep is still running when the next tick
// fires, the next tick is skipped entirely.
func (m *Manager) sweep(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&m.sweeping, 0, 1) {
		m.log.Warn("sweep tick skipped: previous sweep still running")
		m.emit(events.SchedulerWarning, events.Payload{"reason": "sweep overlap skipped"})
		return
	}
	defer atomic.StoreInt32(&m.sweeping, 0)

	targets, err := m.targets.List(ctx, false)
	if err != nil {
		m.log.WithError(err).Error("failed to list targets for sweep")
		m.emit(events.SchedulerWarning, events.Payload{"reason": err.Error()})
		return
	}
	if len(targets) == 0 {
		m.emit(events.NoActiveTargets, events.Payload{})
		return
	}

	m.emit(events.SweepStarted, events.Payload{"targetCount": len(targets)})

	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup
	var succeeded, failed int32

	for _, rec := range targets {
		rec := rec
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := m.scan(ctx, rec.Target)
			now := time.Now()
			if err != nil {
				atomic.AddInt32(&failed, 1)
				_ = m.targets.UpdateScanMetadata(ctx, rec.Host, "", "error", now)
				m.emit(events.TargetError, events.Payload{"target": rec.Host, "reason": err.Error()})
				return
			}

			atomic.AddInt32(&succeeded, 1)
			_ = m.targets.UpdateScanMetadata(ctx, rec.Host, report.ID, report.Status, now)
			m.emit(events.Completed, events.Payload{"target": rec.Host, "reportID": report.ID, "duration": report.Duration})
		}()
	}
	wg.Wait()

	m.emit(events.SweepCompleted, events.Payload{"succeeded": succeeded, "failed": failed})
}

func (m *Manager) emit(name string, payload events.Payload) {
	if m.bus != nil {
		m.bus.Emit(name, payload)
	}
}

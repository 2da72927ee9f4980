// Package orchestrator implements the Scan algorithm from spec.md §4.5: it
// normalizes the target, resolves effective configuration, runs the stage
// pipeline sequentially (with an optional inter-stage rate-limit delay),
// builds the fingerprint, assembles a Report, and hands it to storage.
// Grounded on the teacher's engine.Run (sequential numbered-stage pipeline
// over injected collaborators, non-fatal per-stage warnings) generalized
// from a fixed 5-stage engine to the 15-stage table-driven pipeline in
// internal/stages, and on the teacher's cmd/sweep signal-handling idiom for
// shutdown wiring.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reconctl/reconctl/internal/config"
	"github.com/reconctl/reconctl/internal/events"
	"github.com/reconctl/reconctl/internal/fingerprint"
	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/procmgr"
	"github.com/reconctl/reconctl/internal/runner"
	"github.com/reconctl/reconctl/internal/stages"
	"github.com/reconctl/reconctl/internal/storage"
	"github.com/reconctl/reconctl/internal/target"
)

// UptimeProvider supplies the current uptime snapshot for a host, if uptime
// monitoring is attached to it. Returning (nil, false) means no monitor is
// attached and step 6 of spec.md §4.5 is a no-op for that scan.
type UptimeProvider interface {
	Snapshot(host string) (*model.UptimeSnapshot, bool)
}

// Orchestrator wires the collaborators the Scan algorithm needs. Storage is
// optional: a nil Storage means step 8 (persist + diff + alert) is skipped.
type Orchestrator struct {
	Bus     *events.Bus
	Runner  *runner.Runner
	Procs   *procmgr.Manager
	Storage *storage.Manager
	Uptime  UptimeProvider
	Log     *logrus.Logger
}

// Options carries the per-scan inputs beyond the raw target string.
type Options struct {
	Behavior  string
	Config    map[string]interface{}
	Overrides *config.BehaviorOverrides
}

// New constructs an Orchestrator. Storage and Uptime may be nil.
func New(bus *events.Bus, r *runner.Runner, procs *procmgr.Manager, store *storage.Manager, uptime UptimeProvider, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{Bus: bus, Runner: r, Procs: procs, Storage: store, Uptime: uptime, Log: log}
}

// Initialize registers the ProcessManager's shutdown handlers, per spec.md
// §9's redesign note: registration happens here, not at import time, so
// each Orchestrator instance's ProcessManager is the one that gets cleaned
// up. The returned context is cancelled once a shutdown signal fires, so
// callers can unwind any Scan/BatchScan/scheduler loop in progress.
func (o *Orchestrator) Initialize(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	if o.Procs != nil {
		o.Procs.RegisterShutdownHandlers(func(int) { cancel() })
	}
	return ctx
}

// Scan runs spec.md §4.5's 9-step algorithm for a single target.
func (o *Orchestrator) Scan(ctx context.Context, rawTarget string, opts Options) (model.Report, error) {
	start := time.Now()

	// Step 1: normalize target, fail fast.
	t, err := target.Normalize(rawTarget)
	if err != nil {
		return model.Report{}, err
	}

	// Step 2: resolve effective config, emit behavior-applied.
	cfg, err := config.Resolve(opts.Behavior, opts.Config, opts.Overrides)
	if err != nil {
		return model.Report{}, fmt.Errorf("resolve config: %w", err)
	}
	o.emit(events.BehaviorApplied, events.Payload{"behavior": opts.Behavior, "features": cfg.Features})

	// Step 4: run stages in canonical order, honoring enablement/timeout.
	deps := stages.Deps{Runner: o.Runner, Cache: stages.NewProbeCache()}
	results := model.NewOrderedResults()
	stageByName := make(map[string]stages.Stage)
	for _, s := range stages.All(deps) {
		stageByName[s.Name()] = s
	}

	rateLimitEnabled := cfg.RateLimit.Enabled && cfg.RateLimit.DelayBetweenStages > 0
	first := true
	for _, name := range model.StageOrder {
		if !cfg.StageEnabled(name) {
			continue
		}
		s, ok := stageByName[name]
		if !ok {
			continue
		}

		// Step 3: optional inter-stage delay.
		if rateLimitEnabled && !first {
			o.emit(events.RateLimitDelay, events.Payload{"target": t.Host, "stage": name, "delay": cfg.RateLimit.DelayBetweenStages})
			select {
			case <-ctx.Done():
				return model.Report{}, ctx.Err()
			case <-time.After(cfg.RateLimit.DelayBetweenStages):
			}
		}
		first = false

		stageCtx, cancel := context.WithTimeout(ctx, cfg.StageTimeout(name))
		result := s.Execute(stageCtx, t, cfg)
		cancel()
		results.Set(name, result)
	}

	// Step 5: build fingerprint from the collected results.
	fp := fingerprint.Build(results)

	// Step 6: attach uptime snapshot if a monitor is attached to this host.
	var uptimeSnap *model.UptimeSnapshot
	if o.Uptime != nil {
		if snap, attached := o.Uptime.Snapshot(t.Host); attached {
			uptimeSnap = snap
		}
	}

	// Step 7: assemble the report.
	report := model.Report{
		ID:          newReportID(),
		Timestamp:   start.UTC(),
		Target:      t,
		Duration:    time.Since(start),
		Status:      "completed",
		Results:     results,
		Fingerprint: fp,
		Uptime:      uptimeSnap,
	}

	// Step 8: hand to storage, which diffs + persists + alerts.
	if o.Storage != nil {
		if err := o.Storage.Persist(report); err != nil {
			o.Log.WithError(err).WithField("host", t.Host).Warn("orchestrator: storage persist failed")
			report.Warning = fmt.Sprintf("storage persist failed: %v", err)
		}
	}

	o.emit(events.Completed, events.Payload{"target": t.Host, "reportID": report.ID, "duration": report.Duration})

	// Step 9.
	return report, nil
}

// BatchResult pairs one target's outcome in a BatchScan call.
type BatchResult struct {
	Target string
	Report model.Report
	Err    error
}

// BatchScan runs Scan over every target, capturing each target's error
// rather than aborting the batch, per spec.md §6 ("errors per target
// captured, not thrown").
func (o *Orchestrator) BatchScan(ctx context.Context, rawTargets []string, opts Options) []BatchResult {
	out := make([]BatchResult, 0, len(rawTargets))
	for _, rt := range rawTargets {
		report, err := o.Scan(ctx, rt, opts)
		out = append(out, BatchResult{Target: rt, Report: report, Err: err})
	}
	return out
}

func (o *Orchestrator) emit(name string, payload events.Payload) {
	if o.Bus == nil {
		return
	}
	o.Bus.Emit(name, payload)
}

// newReportID returns a monotonic millisecond timestamp plus a random hex
// suffix, per spec.md §4.5 step 7 ("fresh id (monotonic millisecond
// timestamp plus random suffix)").
func newReportID() string {
	var buf [4]byte
	suffix := "0000"
	if _, err := rand.Read(buf[:]); err == nil {
		suffix = hex.EncodeToString(buf[:])
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

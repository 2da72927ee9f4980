// Package procmgr implements ProcessManager: it owns every child process
// the Runner spawns and guarantees none outlives the parent, per spec.md
// §4.3. Grounded on the teacher pack's daemon-lifecycle idioms (signal
// handling, periodic liveness checks) seen in jbouey-msp-flake's daemon
// package, generalized to tracked child processes instead of a single
// appliance process.
package procmgr

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// GracefulSignal is the signal used for graceful termination before a
// forceful kill, per spec.md §4.2/§4.3.
const GracefulSignal = syscall.SIGTERM

// Tracked is a handle returned by Track, used to Untrack the same process.
type Tracked struct {
	cmd       *exec.Cmd
	name      string
	startedAt time.Time
}

// Manager owns the set of tracked child processes and scratch directories.
// Its process set and temp-dir set are the only shared mutable state on the
// hot path (spec.md §5) and access is serialized by mu.
type Manager struct {
	log *logrus.Logger

	mu       sync.Mutex
	procs    map[*Tracked]struct{}
	tempDirs map[string]struct{}

	handlersOnce sync.Once
}

// New constructs a ProcessManager. Shutdown handlers are registered lazily
// by RegisterShutdownHandlers, not at construction, per spec.md's
// "registration occurs in the orchestrator's initialize, not at import
// time" redesign note.
func New(log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		log:      log,
		procs:    make(map[*Tracked]struct{}),
		tempDirs: make(map[string]struct{}),
	}
}

// Track registers a spawned child under the manager's ownership.
func (m *Manager) Track(cmd *exec.Cmd, name string) *Tracked {
	t := &Tracked{cmd: cmd, name: name, startedAt: time.Now()}
	m.mu.Lock()
	m.procs[t] = struct{}{}
	m.mu.Unlock()
	return t
}

// Untrack removes a process once its exit event has been observed.
func (m *Manager) Untrack(t *Tracked) {
	m.mu.Lock()
	delete(m.procs, t)
	m.mu.Unlock()
}

// TrackTempDir registers a directory that cleanup must remove.
func (m *Manager) TrackTempDir(path string) {
	m.mu.Lock()
	m.tempDirs[path] = struct{}{}
	m.mu.Unlock()
}

// GetProcesses returns a snapshot of currently tracked processes.
func (m *Manager) GetProcesses() []*Tracked {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Tracked, 0, len(m.procs))
	for t := range m.procs {
		out = append(out, t)
	}
	return out
}

// GetProcessCount returns the number of currently tracked processes.
func (m *Manager) GetProcessCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.procs)
}

// CleanupOptions configures Cleanup.
type CleanupOptions struct {
	Force bool
}

// Cleanup terminates every tracked process and removes every tracked temp
// directory, then sweeps known orphans, per spec.md §4.3. Each step's
// errors are logged but never abort the remaining steps.
func (m *Manager) Cleanup(opts CleanupOptions) {
	m.mu.Lock()
	procs := make([]*Tracked, 0, len(m.procs))
	for t := range m.procs {
		procs = append(procs, t)
	}
	dirs := make([]string, 0, len(m.tempDirs))
	for d := range m.tempDirs {
		dirs = append(dirs, d)
	}
	m.mu.Unlock()

	for _, t := range procs {
		m.terminate(t, opts.Force)
	}

	for _, d := range dirs {
		if err := os.RemoveAll(d); err != nil {
			m.log.WithError(err).WithField("dir", d).Warn("procmgr: failed to remove temp dir")
		}
	}

	m.sweepOrphans()

	m.mu.Lock()
	m.procs = make(map[*Tracked]struct{})
	m.tempDirs = make(map[string]struct{})
	m.mu.Unlock()
}

func (m *Manager) terminate(t *Tracked, force bool) {
	if t.cmd == nil || t.cmd.Process == nil {
		return
	}
	pid := t.cmd.Process.Pid

	if !force {
		if err := t.cmd.Process.Signal(GracefulSignal); err != nil {
			m.log.WithError(err).WithField("pid", pid).Debug("procmgr: graceful signal failed")
		}
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if !IsAlive(pid) {
				m.Untrack(t)
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
	}

	if err := t.cmd.Process.Kill(); err != nil {
		m.log.WithError(err).WithField("pid", pid).Warn("procmgr: forceful kill failed")
	}
	m.Untrack(t)
}

// IsAlive probes liveness with a "signal 0" existence check — it never
// sends a real signal, per spec.md §4.3.
func IsAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// sweepOrphans is a best-effort pass; without a process-table library in
// the pack, it only handles the temp-directory half of the sweep (residual
// scratch dirs under the OS temp root matching known prefixes). See
// DESIGN.md for why process-table enumeration is not attempted here.
func (m *Manager) sweepOrphans() {
	tmp := os.TempDir()
	entries, err := os.ReadDir(tmp)
	if err != nil {
		m.log.WithError(err).Debug("procmgr: orphan sweep could not read temp root")
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		for _, prefix := range []string{"reconctl-"} {
			if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
				_ = os.RemoveAll(tmp + string(os.PathSeparator) + name)
			}
		}
	}
}

// Package uptime implements the optional per-host liveness monitor behind
// spec.md §6's `startUptimeMonitoring/stopUptimeMonitoring/getUptimeStatus`
// surface. Grounded on the ticker-driven main loop in jbouey-msp-flake's
// appliance daemon (internal/daemon/daemon.go's `for { select { ...
// ticker.C } }` pattern), generalized from one daemon-wide ticker to one
// goroutine per monitored host so hosts can be added and removed
// independently.
package uptime

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

// ErrAlreadyMonitored is returned by Start when the host already has an
// active monitor.
var ErrAlreadyMonitored = fmt.Errorf("uptime: host already monitored")

// ErrNotMonitored is returned by Stop/Status when the host has no active
// monitor.
var ErrNotMonitored = fmt.Errorf("uptime: host not monitored")

// Checker reports whether host is reachable right now. The default checker
// (see New) dials TCP port 443; callers may substitute one that reuses scan
// results instead.
type Checker func(ctx context.Context, host string) bool

type hostMonitor struct {
	upSince       time.Time
	lastCheckedAt time.Time
	available     bool
	cancel        context.CancelFunc
	mu            sync.Mutex
}

// Monitor tracks liveness for an independent set of hosts, each polled on
// its own ticker.
type Monitor struct {
	checker  Checker
	interval time.Duration

	mu    sync.Mutex
	hosts map[string]*hostMonitor
}

// New constructs a Monitor. A nil checker defaults to DialChecker on port
// 443; interval defaults to one minute.
func New(checker Checker, interval time.Duration) *Monitor {
	if checker == nil {
		checker = DialChecker("443")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{checker: checker, interval: interval, hosts: make(map[string]*hostMonitor)}
}

// DialChecker returns a Checker that dials host:port with a short timeout.
func DialChecker(port string) Checker {
	return func(ctx context.Context, host string) bool {
		d := net.Dialer{Timeout: 5 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

// Start begins polling host on its own ticker, until Stop is called.
func (m *Monitor) Start(ctx context.Context, host string) error {
	m.mu.Lock()
	if _, exists := m.hosts[host]; exists {
		m.mu.Unlock()
		return ErrAlreadyMonitored
	}
	loopCtx, cancel := context.WithCancel(ctx)
	hm := &hostMonitor{cancel: cancel}
	m.hosts[host] = hm
	m.mu.Unlock()

	m.pollOnce(loopCtx, host, hm)
	go m.loop(loopCtx, host, hm)
	return nil
}

func (m *Monitor) loop(ctx context.Context, host string, hm *hostMonitor) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx, host, hm)
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context, host string, hm *hostMonitor) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	up := m.checker(checkCtx, host)
	cancel()

	now := time.Now()
	hm.mu.Lock()
	wasAvailable := hm.available
	hm.available = up
	hm.lastCheckedAt = now
	if up && (!wasAvailable || hm.upSince.IsZero()) {
		hm.upSince = now
	}
	if !up {
		hm.upSince = time.Time{}
	}
	hm.mu.Unlock()
}

// Stop cancels host's polling loop and removes its state.
func (m *Monitor) Stop(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hm, ok := m.hosts[host]
	if !ok {
		return ErrNotMonitored
	}
	hm.cancel()
	delete(m.hosts, host)
	return nil
}

// Status returns host's current snapshot and whether it is monitored.
func (m *Monitor) Status(host string) (*model.UptimeSnapshot, bool) {
	m.mu.Lock()
	hm, ok := m.hosts[host]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return &model.UptimeSnapshot{
		UpSince:       hm.upSince,
		LastCheckedAt: hm.lastCheckedAt,
		Available:     hm.available,
	}, true
}

// Snapshot implements orchestrator.UptimeProvider.
func (m *Monitor) Snapshot(host string) (*model.UptimeSnapshot, bool) {
	return m.Status(host)
}

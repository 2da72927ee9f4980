package procmgr

import (
	"os"
	"os/signal"
	"syscall"
)

// RegisterShutdownHandlers wires interrupt/terminate/hangup signals to
// Cleanup, exactly once per Manager instance, per spec.md §4.3. Unlike a
// package-level init(), this is called explicitly by the orchestrator so
// handlers capture a reference to a specific Manager rather than a global
// (spec.md §9 redesign note on signal-handler side effects).
func (m *Manager) RegisterShutdownHandlers(exit func(code int)) {
	m.handlersOnce.Do(func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

		go func() {
			sig := <-sigCh
			m.log.WithField("signal", sig.String()).Info("procmgr: shutdown signal received")
			m.Cleanup(CleanupOptions{Force: false})
			if exit != nil {
				exit(0)
			}
		}()
	})
}

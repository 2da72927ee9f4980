package model

import (
	"os/exec"
	"time"
)

// TrackedProcess is a child process owned by ProcessManager for its
// lifetime, per spec.md §3.
type TrackedProcess struct {
	Handle    *exec.Cmd
	PID       int
	Name      string
	StartedAt time.Time
	TempDirs  []string
}

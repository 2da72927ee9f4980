package procmgr

import (
	"os/exec"
	"testing"
	"time"
)

func TestTrackAndUntrack(t *testing.T) {
	m := New(nil)
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	defer cmd.Process.Kill()

	tracked := m.Track(cmd, "sleep")
	if m.GetProcessCount() != 1 {
		t.Fatalf("GetProcessCount() = %d, want 1", m.GetProcessCount())
	}

	m.Untrack(tracked)
	if m.GetProcessCount() != 0 {
		t.Fatalf("GetProcessCount() after untrack = %d, want 0", m.GetProcessCount())
	}
}

func TestCleanup_KillsTrackedProcessesAndClearsTempDirs(t *testing.T) {
	m := New(nil)
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	m.Track(cmd, "sleep")

	dir := t.TempDir()
	m.TrackTempDir(dir)

	m.Cleanup(CleanupOptions{Force: true})

	if m.GetProcessCount() != 0 {
		t.Errorf("GetProcessCount() after cleanup = %d, want 0", m.GetProcessCount())
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !IsAlive(cmd.Process.Pid) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("process %d still alive after cleanup", cmd.Process.Pid)
}

func TestIsAlive_FalseForReapedProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("true not available: %v", err)
	}
	if IsAlive(cmd.Process.Pid) {
		t.Skip("pid reused by OS, cannot assert")
	}
}

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/procmgr"
)

func newTestRunner() *Runner {
	return New(procmgr.New(nil))
}

func TestRun_SuccessfulExit(t *testing.T) {
	r := newTestRunner()
	res := r.Run(context.Background(), "echo", []string{"hello"}, Options{})
	if !res.OK {
		t.Fatalf("expected ok, got err=%v", res.Err)
	}
	if string(res.Stdout) != "hello\n" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "hello\n")
	}
}

func TestRun_NonzeroExit(t *testing.T) {
	r := newTestRunner()
	res := r.Run(context.Background(), "false", nil, Options{})
	if res.OK {
		t.Fatal("expected failure for `false`")
	}
	if res.Err.Code != ErrExitCode {
		t.Errorf("code = %v, want EXITCODE", res.Err.Code)
	}
}

func TestRun_CommandNotFound(t *testing.T) {
	r := newTestRunner()
	res := r.Run(context.Background(), "reconctl-does-not-exist-xyz", nil, Options{})
	if res.OK {
		t.Fatal("expected failure for missing binary")
	}
	if res.Err.Code != ErrENOENT {
		t.Errorf("code = %v, want ENOENT", res.Err.Code)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := newTestRunner()
	start := time.Now()
	res := r.Run(context.Background(), "sleep", []string{"5"}, Options{Timeout: 200 * time.Millisecond})
	elapsed := time.Since(start)

	if res.OK {
		t.Fatal("expected timeout failure")
	}
	if res.Err.Code != ErrTimeout {
		t.Errorf("code = %v, want TIMEOUT", res.Err.Code)
	}
	if elapsed > 200*time.Millisecond+5*time.Second {
		t.Errorf("took %v, should resolve near the timeout plus graceful-kill budget", elapsed)
	}
}

func TestRun_MaxBufferTruncates(t *testing.T) {
	r := newTestRunner()
	start := time.Now()
	res := r.Run(context.Background(), "yes", nil, Options{MaxBufferBytes: 1024, Timeout: 3 * time.Second})
	elapsed := time.Since(start)

	if res.OK {
		t.Fatal("expected MAXBUFFER failure")
	}
	if res.Err.Code != ErrMaxBuffer {
		t.Errorf("code = %v, want MAXBUFFER", res.Err.Code)
	}
	if int64(len(res.Stdout)) > 1024 {
		t.Errorf("stdout len = %d, want <= 1024", len(res.Stdout))
	}
	// yes(1) never exits on its own: the child must be killed the instant
	// maxBuffer is crossed, not only once the full Timeout elapses.
	if elapsed > 2*time.Second {
		t.Errorf("took %v, want well under the 3s timeout (buffer overflow should kill immediately)", elapsed)
	}
}

func TestIsAvailable_CachesResult(t *testing.T) {
	r := newTestRunner()
	if !r.IsAvailable("echo") {
		t.Fatal("echo should be available")
	}
	if r.IsAvailable("reconctl-does-not-exist-xyz") {
		t.Fatal("nonexistent binary should be unavailable")
	}
	r.ClearCache()
	if !r.IsAvailable("echo") {
		t.Fatal("echo should still be available after cache clear")
	}
}

package shutdown

import (
	"syscall"
	"testing"
	"time"
)

func TestDone(t *testing.T) {
	ctx, done := New()
	done()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context is not cancelled after done")
	}
}

func TestSignal(t *testing.T) {
	ctx, done := New()
	defer done()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("context is not cancelled after SIGTERM")
	}
}

//go:build !windows

package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestOnSignal(t *testing.T) {
	fired := make(chan struct{})
	stop := OnSignal(context.Background(), func() { close(fired) })
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Skipf("cannot signal self: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback not run")
	}
}

func TestOnSignalStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{}, 1)
	stop := OnSignal(ctx, func() { called <- struct{}{} })
	cancel()
	stop()
	select {
	case <-called:
		t.Fatal("callback ran without a signal")
	case <-time.After(20 * time.Millisecond):
	}
}

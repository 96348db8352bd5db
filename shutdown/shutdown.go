// Package shutdown reacts to the platform's termination signals.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}

// OnSignal runs fn once when a termination signal arrives before ctx is
// done. The returned func stops listening.
func OnSignal(ctx context.Context, fn func()) (stop func()) {
	ch := make(chan os.Signal, 1)
	Notify(ch)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
		}
	}()
	return func() {
		cancel()
		signal.Stop(ch)
	}
}

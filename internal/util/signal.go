package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// WithInterrupt cancels the returned context on the first SIGINT/SIGTERM so a
// running scan can stop between genres and still print its footer. A second
// signal exits right away.
func WithInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sig:
		case <-done:
			return
		}
		fmt.Fprintln(os.Stderr, "\nInterrupt received. Finishing current genre...")
		cancel()

		select {
		case <-sig:
			fmt.Fprintln(os.Stderr, "\nExiting due to interrupt.")
			os.Exit(1)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sig)
			cancel()
			close(done)
		})
	}
}

// Package timeout implements the shared "run this operation, but give
// up after a bounded duration" utility used by force-flush and shutdown
// across the batch processors, periodic reader, and exporters.
package timeout

import (
	"context"
	"errors"
	"time"

	"github.com/z5labs/otelpipe/internal/clock"
)

// ErrExceeded is returned when operation did not complete before d
// elapsed.
var ErrExceeded = errors.New("timeout: operation exceeded its deadline")

// Await runs operation, returning its error if it completes before d
// elapses, or [ErrExceeded] if it does not. operation is given a child
// of ctx that is cancelled as soon as Await returns, so it can observe
// the timeout and exit early; Await does not guarantee operation has
// stopped running when it returns ErrExceeded, only that it stopped
// waiting for it.
//
// A d of zero or less means no timeout is applied; operation runs to
// completion against ctx alone.
func Await(ctx context.Context, clk clock.Clock, d time.Duration, operation func(context.Context) error) error {
	if d <= 0 {
		return operation(ctx)
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- operation(opCtx)
	}()

	timer := clk.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C():
		return ErrExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

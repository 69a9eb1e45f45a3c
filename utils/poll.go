package utils

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by WaitFor when the deadline passes before
// check reports done.
var ErrWaitTimeout = errors.New("wait timeout")

// WaitFor polls check at the given interval until it returns (true, nil),
// returns a non-nil error, or the timeout/context expires. The clock is
// injected so tests can simulate elapsed time.
func WaitFor(ctx context.Context, clock Clock, timeout, interval time.Duration, check func() (done bool, err error)) error {
	deadline := clock.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !clock.Now().Before(deadline) {
			return ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(interval):
		}
	}
}

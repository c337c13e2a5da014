// Package lock serializes ledger cycles so that only one load, mutate and
// persist sequence runs at a time against the same store.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the lock could not be acquired in time
var ErrTimeout = errors.New("timed out waiting for ledger lock")

const retryInterval = 25 * time.Millisecond

// Release gives up a held lock
type Release func() error

// Locker grants exclusive access to the ledger
type Locker interface {
	Acquire(ctx context.Context) (Release, error)
}

// NoopLocker grants every request immediately. Concurrent cycles then race
// and the last save wins.
type NoopLocker struct{}

// Acquire implements Locker
func (NoopLocker) Acquire(context.Context) (Release, error) {
	return func() error { return nil }, nil
}

// retry calls try until it reports success, fails, the wait elapses or ctx ends
func retry(ctx context.Context, wait time.Duration, try func() (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// FileLockName is the lock file created inside the data directory
const FileLockName = ".ledger.lock"

// FileLocker takes an exclusive flock(2) on a file. The kernel drops the
// lock when the process exits, so a crashed cycle never leaves it held.
type FileLocker struct {
	path string
	wait time.Duration
}

// NewFileLocker creates a locker on path that waits at most wait
func NewFileLocker(path string, wait time.Duration) *FileLocker {
	return &FileLocker{path: path, wait: wait}
}

// Acquire implements Locker
func (l *FileLocker) Acquire(ctx context.Context) (Release, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	err = retry(ctx, l.wait, func() (bool, error) {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, fmt.Errorf("flock failed: %w", err)
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	return func() error {
		defer f.Close()
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			return fmt.Errorf("failed to unlock: %w", err)
		}
		return nil
	}, nil
}

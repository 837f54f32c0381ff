// Package filelock guards a watched application root against concurrent
// gantry processes. Two watch engines on the same tree would double-report
// every change, so `gantry watch` takes an exclusive lock before starting.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WatchLock is an exclusive, process-level lock on an application root.
type WatchLock struct {
	flock *flock.Flock
	path  string
}

// ForRoot returns the lock guarding root. The lock file lives inside a
// .gantry directory under the root.
func ForRoot(root string) (*WatchLock, error) {
	dir := filepath.Join(root, ".gantry")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := filepath.Join(dir, "watch.lock")
	return &WatchLock{flock: flock.New(path), path: path}, nil
}

// TryAcquire attempts to take the lock without blocking. Returns false when
// another process already watches the root.
func (l *WatchLock) TryAcquire() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release drops the lock.
func (l *WatchLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return nil
}

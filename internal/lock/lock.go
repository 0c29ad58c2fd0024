// Package lock provides the single-instance guard: an exclusive,
// non-blocking lease on a filesystem path, held for the process
// lifetime and released by the OS on exit by any means.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Guard is a held single-instance lock.
type Guard struct {
	fl *flock.Flock
}

// Acquire attempts to take the lock at path without blocking. It
// returns (nil, nil) when another live process already holds it —
// that is the degraded-mode signal, not an error.
func Acquire(path string) (*Guard, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("try lock %s: %w", path, err)
	}
	if !locked {
		return nil, nil
	}
	return &Guard{fl: fl}, nil
}

// Path returns the lock file path.
func (g *Guard) Path() string {
	return g.fl.Path()
}

// Release drops the lock explicitly. Process exit releases it anyway.
func (g *Guard) Release() error {
	return g.fl.Unlock()
}

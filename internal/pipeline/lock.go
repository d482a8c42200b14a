package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the data directory while a run holds the corpus.
const LockFileName = "pipeline.lock"

// FileLock is a cross-process lock that keeps two runs from mutating the
// corpus at the same time.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock at <dir>/pipeline.lock.
func NewFileLock(dir string) *FileLock {
	lockPath := filepath.Join(dir, LockFileName)
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. It is safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// Held reports whether another process currently holds the lock. It probes
// by acquiring and immediately releasing.
func (l *FileLock) Held() (bool, error) {
	acquired, err := l.TryLock()
	if err != nil {
		return false, err
	}
	if !acquired {
		return true, nil
	}
	return false, l.Unlock()
}

package repository

import (
	"fmt"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/gofrs/flock"
)

// ReleaseLock is an advisory lock held for the duration of a release.
type ReleaseLock struct {
	lock *flock.Flock
}

// AcquireReleaseLock takes the lock at path without waiting.
// It returns domain.ErrReleaseInProgress when another process holds it.
func AcquireReleaseLock(path string) (*ReleaseLock, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire release lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrReleaseInProgress, path)
	}
	return &ReleaseLock{lock: lock}, nil
}

// Release unlocks the lock.
func (l *ReleaseLock) Release() error {
	return l.lock.Unlock()
}

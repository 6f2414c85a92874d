// Package buildlock coordinates concurrent index builds against the same
// tar: an flock-guarded sidecar ".lock" file, acquired with a timeout.
package buildlock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// DefaultTimeout is how long WithLock waits to acquire the lock before
// giving up.
const DefaultTimeout = 5 * time.Second

// ErrTimeout indicates the lock could not be acquired within the timeout.
var ErrTimeout = errors.New("buildlock: timed out acquiring lock")

// WithLock runs fn while holding an exclusive lock on targetPath+".lock".
// The lock file is created if absent and left in place (only its flock
// state matters, not its presence) so object-storage-backed directories
// that can't remove-then-recreate cheaply aren't penalized.
func WithLock(targetPath string, timeout time.Duration, fn func() error) error {
	lockPath := targetPath + ".lock"

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("buildlock: open %s: %w", lockPath, err)
	}
	defer file.Close()

	if err := flockWithTimeout(file, timeout); err != nil {
		return err
	}
	defer func() {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	}()

	return fn()
}

func flockWithTimeout(file *os.File, timeout time.Duration) error {
	fd := int(file.Fd())

	done := make(chan error, 1)
	go func() {
		done <- syscall.Flock(fd, syscall.LOCK_EX)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("buildlock: flock: %w", err)
		}

		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w: %s", ErrTimeout, file.Name())
	}
}

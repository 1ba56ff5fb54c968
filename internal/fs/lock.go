package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	// DefaultLockTimeout bounds how long a run waits for another run on the same file.
	DefaultLockTimeout = 10 * time.Second

	lockPollInterval = 50 * time.Millisecond
)

// ErrLockTimeout is returned when the lock is still held by someone else at the deadline.
var ErrLockTimeout = errors.New("timed out waiting for file lock")

// FileLock is an exclusive advisory lock tied to one target file.
// The lock file lives in the OS temp dir so the target's directory stays clean.
type FileLock struct {
	flock  *flock.Flock
	target string
}

// NewFileLock creates a lock for the given absolute target path.
func NewFileLock(target string) *FileLock {
	name := "cwlpatch-" + HashBytes([]byte(filepath.Clean(target)))[:16] + ".lock"
	return &FileLock{
		flock:  flock.New(filepath.Join(os.TempDir(), name)),
		target: target,
	}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.flock.Path()
}

// Acquire polls for the exclusive lock until it is obtained, ctx is done,
// or timeout elapses. A zero timeout tries exactly once.
func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		locked, err := l.flock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.target, err)
		}
		if !locked {
			return fmt.Errorf("%w: %s", ErrLockTimeout, l.target)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := l.flock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v: %s (another cwlpatch run may be using it)", ErrLockTimeout, timeout, l.target)
		}
		return fmt.Errorf("failed to lock %s: %w", l.target, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLockTimeout, l.target)
	}
	return nil
}

// Release unlocks. Safe to call more than once.
func (l *FileLock) Release() error {
	return l.flock.Unlock()
}

// WithLock runs fn while holding the exclusive lock for target.
func WithLock(ctx context.Context, target string, timeout time.Duration, fn func() error) error {
	lock := NewFileLock(target)
	if err := lock.Acquire(ctx, timeout); err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

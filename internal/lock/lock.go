package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"gavel/internal/services"
)

// Lock guards the whole pipeline run. Acquire polls until the lock is free
// or the timeout elapses; Release drops the lock and removes the file.
type Lock struct {
	path         string
	timeout      time.Duration
	pollInterval time.Duration
	flk          *flock.Flock
}

// Option customizes lock behavior.
type Option func(*Lock)

// WithTimeout overrides how long Acquire waits before giving up.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Lock) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithPollInterval overrides the retry cadence while the lock is held
// elsewhere.
func WithPollInterval(interval time.Duration) Option {
	return func(l *Lock) {
		if interval > 0 {
			l.pollInterval = interval
		}
	}
}

// New builds a lock for the given file path.
func New(path string, opts ...Option) *Lock {
	l := &Lock{
		path:         path,
		timeout:      60 * time.Second,
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.flk = flock.New(path)
	return l
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, polling until it is free or the timeout elapses.
// On success the acquisition time is written into the lock file so an
// operator inspecting a stuck run can see when the holder started.
func (l *Lock) Acquire(ctx context.Context) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	acquired, err := l.flk.TryLockContext(waitCtx, l.pollInterval)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("%w: lock %s held for more than %s", services.ErrLockContention, l.path, l.timeout)
		}
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %s unavailable", services.ErrLockContention, l.path)
	}

	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(l.path, []byte(stamp), 0o644); err != nil {
		_ = l.flk.Unlock()
		return fmt.Errorf("write lock stamp: %w", err)
	}
	return nil
}

// Release drops the lock and removes the lock file. Safe to call after a
// failed Acquire.
func (l *Lock) Release() error {
	if err := l.flk.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	// Best-effort removal so a stale file does not alarm operators.
	_ = os.Remove(l.path)
	return nil
}

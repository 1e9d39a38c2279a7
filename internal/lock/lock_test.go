package lock_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gavel/internal/lock"
	"gavel/internal/services"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gavel.lock")
	l := lock.New(path)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, string(data[:len(data)-1])); err != nil {
		t.Fatalf("lock stamp %q not RFC3339: %v", data, err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed, stat err = %v", err)
	}
}

func TestSecondAcquireTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gavel.lock")

	first := lock.New(path)
	if err := first.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer first.Release()

	second := lock.New(path,
		lock.WithTimeout(150*time.Millisecond),
		lock.WithPollInterval(25*time.Millisecond),
	)
	err := second.Acquire(context.Background())
	if err == nil {
		second.Release()
		t.Fatal("expected contention error")
	}
	if !errors.Is(err, services.ErrLockContention) {
		t.Fatalf("error = %v, want ErrLockContention", err)
	}
}

func TestAcquireCreatesLockDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "gavel.lock")
	l := lock.New(path)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

package loader

import (
	"context"
	"testing"
	"time"
)

func TestNewWatcherDefaults(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0)
	if w.interval != 5*time.Second {
		t.Errorf("interval = %v, want the 5s default", w.interval)
	}
	if w.Changes() == nil {
		t.Error("Changes() must return a channel")
	}

	w = NewWatcher(t.TempDir(), time.Minute)
	if w.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", w.interval)
	}
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	w := NewWatcher(t.TempDir(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestWatcherRunMissingDir(t *testing.T) {
	w := NewWatcher("/does/not/exist", time.Minute)
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

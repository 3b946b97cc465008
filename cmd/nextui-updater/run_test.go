package main

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"nextui-updater/internal/config"
	"nextui-updater/internal/worker"
)

func TestShutdownPoolWaitsForRunningUpdate(t *testing.T) {
	pool := worker.New(1, 1)
	started := make(chan struct{})
	var finished atomic.Bool
	pool.Submit("update full", func(context.Context) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
	})
	<-started

	if !shutdownPool(pool, func() bool { return true }, 10*time.Millisecond) {
		t.Error("expected a complete drain while an update is writing")
	}
	if !finished.Load() {
		t.Fatal("shutdown returned before the update finished writing")
	}
}

func TestShutdownPoolCancelsFetchesAfterTimeout(t *testing.T) {
	pool := worker.New(1, 1)
	started := make(chan struct{})
	cancelled := make(chan struct{})
	pool.Submit("refresh latest", func(ctx context.Context) {
		close(started)
		select {
		case <-ctx.Done():
			close(cancelled)
		case <-time.After(5 * time.Second):
		}
	})
	<-started

	begin := time.Now()
	if shutdownPool(pool, func() bool { return false }, 20*time.Millisecond) {
		t.Error("expected the drain to time out")
	}
	if elapsed := time.Since(begin); elapsed > 2*time.Second {
		t.Fatalf("shutdown took %v", elapsed)
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch context was not cancelled")
	}
}

func TestNewAppWiresComponents(t *testing.T) {
	defer config.ResetForTesting(t)()
	if err := config.Set(config.KeyHistoryPath, filepath.Join(t.TempDir(), "history.db")); err != nil {
		t.Fatal(err)
	}

	a := newApp(context.Background())
	defer a.close()

	if got := a.resolver.Repository(); got != "LoveRetro/NextUI" {
		t.Errorf("repository = %q", got)
	}
	if a.history == nil {
		t.Error("expected history to be opened")
	}
	if a.pipeline.Running() {
		t.Error("new pipeline reports a running update")
	}
	if a.store.InstalledVersion() != "" {
		t.Errorf("installed = %q, want unknown on an empty card", a.store.InstalledVersion())
	}
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chaos.yaml")
	if err := os.WriteFile(path, []byte("settings:\n  enabled: true\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(p string) { changed <- p })
	}()

	// Give the watch loop a moment to start.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("settings:\n  enabled: false\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case got := <-changed:
		if filepath.Base(got) != "chaos.yaml" {
			t.Errorf("unexpected changed path %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	if w.Changes() < 1 {
		t.Errorf("Changes() = %d, want >= 1", w.Changes())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chaos.yaml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644)
	}()

	if err := w.Watch(ctx, nil); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if w.Changes() != 0 {
		t.Errorf("Changes() = %d, want 0", w.Changes())
	}
}

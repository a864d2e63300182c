package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the configuration file on disk. Compiled
// experiments are never rebuilt after startup, so a change only produces
// a notification; picking it up requires a restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	last    time.Time
	changes int
}

// NewWatcher creates a watcher for the configuration file at path. The
// containing directory is watched so editors that replace the file on
// save are noticed too.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve config path %q: %w", path, err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		logger:   logger.With("component", "config.watcher"),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Watch blocks until ctx is done, calling onChange (which may be nil) for
// every debounced modification of the configuration file.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string)) error {
	defer w.watcher.Close()

	w.logger.Debug("watching configuration file", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Warn("configuration file changed on disk; restart the agent to apply it",
				"path", w.path,
				"op", event.Op.String(),
			)
			if onChange != nil {
				onChange(w.path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("configuration watcher error", "error", err)
		}
	}
}

// Changes returns how many debounced changes have been reported.
func (w *Watcher) Changes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changes
}

// relevant filters events down to content changes of the watched file,
// collapsing bursts that arrive within the debounce interval.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.last) < w.debounce {
		return false
	}
	w.last = now
	w.changes++
	return true
}

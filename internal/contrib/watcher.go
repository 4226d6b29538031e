// SPDX-License-Identifier: MPL-2.0

package contrib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period after the last filesystem event
// before the store reloads. Editors typically write a temp file and rename
// it; the window coalesces that burst into one reload.
const defaultDebounce = 500 * time.Millisecond

type (
	// WatcherConfig holds the parameters for a Watcher.
	WatcherConfig struct {
		// Store is the contribution store to reload on changes. Required.
		Store *Store

		// Debounce is the quiet period after the last event before the
		// reload fires. Zero or negative falls back to defaultDebounce.
		Debounce time.Duration

		// Logger receives watcher diagnostics. nil gets a "contrib" prefixed
		// logger on stderr.
		Logger *log.Logger
	}

	// Watcher monitors the store's contributions directory and reloads the
	// store after a debounced burst of manifest changes. Run must be called
	// exactly once.
	Watcher struct {
		store    *Store
		fsw      *fsnotify.Watcher
		logger   *log.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

// NewWatcher creates a Watcher over cfg.Store's directory. The directory
// must exist; callers that tolerate a missing contributions directory
// should skip watching.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("watch contributions: nil store")
	}

	baseDir, err := filepath.Abs(cfg.Store.Dir())
	if err != nil {
		return nil, fmt.Errorf("watch contributions: resolve directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch contributions: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "contrib"})
	}

	w := &Watcher{
		store:    cfg.Store,
		fsw:      fsw,
		logger:   logger,
		debounce: debounce,
		baseDir:  baseDir,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("close after init failure", "err", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, reloading the store after each
// debounced burst of manifest events. It returns nil on clean cancellation.
// Run must be called exactly once; a second call returns an error.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch contributions: Run called more than once")
	}

	var (
		mu      sync.Mutex
		dirty   bool
		timer   *time.Timer
		running atomic.Bool
	)

	// fire reloads the store. It may be scheduled by time.AfterFunc after
	// the context is cancelled, so ctx.Err() is checked as a best-effort
	// guard. The skip-if-busy CAS keeps a slow reload from overlapping the
	// next one; the pending flag schedules a retry so events are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if !dirty {
			mu.Unlock()
			return
		}
		dirty = false
		mu.Unlock()

		if err := w.store.Reload(); err != nil {
			w.logger.Error("reload failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Error("close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch contributions: event channel closed unexpectedly")
			}

			// Newly created directories extend the recursive watch.
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(evt.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "path", evt.Name, "err", err)
					}
				}
			}

			if !w.matchesManifest(evt.Name) {
				continue
			}

			mu.Lock()
			dirty = true
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch contributions: error channel closed unexpectedly")
			}
			w.logger.Error("fsnotify error", "err", err)
		}
	}
}

// matchesManifest reports whether the event path names a manifest file.
func (w *Watcher) matchesManifest(name string) bool {
	rel, err := filepath.Rel(w.baseDir, name)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range manifestPatterns {
		if matched, matchErr := doublestar.Match(pattern, rel); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// addDirectories registers the base directory and every subdirectory with
// fsnotify. Inaccessible subdirectories are skipped rather than failing
// the whole watch.
func (w *Watcher) addDirectories() error {
	return filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == w.baseDir {
				return fmt.Errorf("watch contributions: %w", walkErr)
			}
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil //nolint:nilerr // intentional skip
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch contributions: add %s: %w", path, err)
		}
		return nil
	})
}

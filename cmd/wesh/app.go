// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"wesh-cli/internal/config"
	"wesh-cli/internal/contrib"
	"wesh-cli/internal/runner"
	"wesh-cli/internal/shell"
	"wesh-cli/internal/sshserver"
)

// newLogger builds the process logger honoring the verbose flag.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: prefix})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// setupContributions loads the manifest store and starts the file
// watcher so sessions see manifest edits live. The watcher goroutine
// stops with ctx.
func setupContributions(ctx context.Context, cfg *config.Config, logger *log.Logger) (*contrib.Store, error) {
	dir := cfg.ContribDir
	if dir == "" {
		var err error
		dir, err = config.ContribDir()
		if err != nil {
			return nil, fmt.Errorf("resolving contributions directory: %w", err)
		}
	}

	store := contrib.NewStore(dir, logger)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading contributions from %s: %w", dir, err)
	}

	// No directory yet means no manifests and nothing to watch.
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Debug("contributions directory missing, watching disabled", "dir", dir)
		return store, nil
	}

	watcher, err := contrib.NewWatcher(contrib.WatcherConfig{
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("contribution watcher stopped", "error", err)
		}
	}()

	return store, nil
}

// sessionOptions assembles the per-session knobs shared by the local
// and SSH entry points.
func sessionOptions(cfg *config.Config, store *contrib.Store, logger *log.Logger) (shell.Contributions, shell.HandlerFactory, sshserver.SessionConfig) {
	run := runner.New(cfg.Runner, logger)
	sc := sshserver.SessionConfig{
		Contributions: store,
		NewHandler:    run.HandlerFor,
		InitialDir:    cfg.InitialCwd,
		PromptSuffix:  cfg.PromptSuffix,
		BinDir:        cfg.BinDir,
		History:       cfg.History,
	}
	return store, run.HandlerFor, sc
}

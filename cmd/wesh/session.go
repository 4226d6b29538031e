// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wesh-cli/internal/shell"
	"wesh-cli/internal/termio"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start a local interactive session",
	Long: `Start an interactive wesh session on the current terminal.

The terminal is switched to raw mode for the duration of the session
and restored when the session ends (via the exit built-in or EOF).`,
	RunE: runLocalSession,
}

// stdinout pairs the process stdin and stdout into one stream for the
// line editor.
type stdinout struct{}

func (stdinout) Read(b []byte) (int, error) { return os.Stdin.Read(b) }

func (stdinout) Write(b []byte) (int, error) { return os.Stdout.Write(b) }

func runLocalSession(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.New(formatErrorForDisplay(err))
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal; wesh session needs an interactive terminal")
	}

	logger := newLogger("wesh")
	store, err := setupContributions(cmd.Context(), cfg, logger)
	if err != nil {
		return errors.New(formatErrorForDisplay(err))
	}
	contribs, newHandler, _ := sessionOptions(cfg, store, logger)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}

	var tio io.ReadWriter = stdinout{}
	terminal := termio.NewLineTerminal(tio, termio.Options{
		History: cfg.History,
		OnDispose: func() error {
			return term.Restore(fd, oldState)
		},
	})
	if w, h, err := term.GetSize(fd); err == nil {
		_ = terminal.Resize(w, h)
	}

	session, err := shell.NewSession(shell.Options{
		Terminal:      terminal,
		Contributions: contribs,
		NewHandler:    newHandler,
		InitialDir:    cfg.InitialCwd,
		PromptSuffix:  cfg.PromptSuffix,
		BinDir:        cfg.BinDir,
	})
	if err != nil {
		_ = terminal.Dispose()
		return err
	}

	runErr := session.Run(cmd.Context())
	// Run disposes on exit/EOF; this covers error paths.
	_ = terminal.Dispose()
	return runErr
}

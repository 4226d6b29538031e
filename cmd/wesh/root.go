// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"wesh-cli/internal/config"
	"wesh-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// rootCmd represents the base command when called without subcommands.
	rootCmd = &cobra.Command{
		Use:   "wesh",
		Short: "A minimal shell with dynamically contributed commands",
		Long: TitleStyle.Render("wesh") + SubtitleStyle.Render(" - a minimal shell with dynamically contributed commands") + `

wesh hosts an interactive command loop with built-ins (exit, pwd, cd)
and a registry of commands contributed by extension manifests. The
contributed commands appear in a virtual /usr/bin directory and the
registry updates live as manifest files change on disk.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Drop a *.wesh.cue manifest into ~/.wesh/contrib
  2. Start a session with: wesh session
  3. Or serve sessions over SSH with: wesh serve

` + SubtitleStyle.Render("Examples:") + `
  wesh session              Start a local interactive session
  wesh serve                Serve sessions over SSH
  wesh config show          Show current configuration
  wesh docs                 Read the manual`,
	}
)

// exitError carries an exit code through fang back to main.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/wesh/config.cue)")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(docsCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command through fang for the styled help and
// error output.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

// initRootConfig applies the --config flag before any command loads the
// configuration.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFileOverride(cfgFile)
	}
}

// loadConfig loads the configuration for a command, surfacing failures
// in the actionable format.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		verbose = true
	}
	return cfg, nil
}

// formatErrorForDisplay formats an error for user display. Actionable
// errors render with their suggestions; verbose mode shows the chain.
func formatErrorForDisplay(err error) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

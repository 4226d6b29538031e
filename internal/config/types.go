// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// RunnerNative executes contributed commands as host processes.
	RunnerNative RunnerMode = "native"
	// RunnerVirtual executes contributed command scripts in the embedded
	// mvdan/sh interpreter.
	RunnerVirtual RunnerMode = "virtual"
)

var (
	// ErrInvalidRunnerMode is the sentinel error wrapped by InvalidRunnerModeError.
	ErrInvalidRunnerMode = errors.New("invalid runner mode")
	// ErrInvalidBinDir is returned when the virtual bin directory is not absolute.
	ErrInvalidBinDir = errors.New("invalid bin directory")
	// ErrInvalidPromptSuffix is returned when the prompt suffix is whitespace-only.
	ErrInvalidPromptSuffix = errors.New("invalid prompt suffix")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RunnerMode selects the default execution runner for contributed commands.
	RunnerMode string

	// InvalidRunnerModeError is returned when a RunnerMode value is not
	// recognized. It wraps ErrInvalidRunnerMode for errors.Is() compatibility.
	InvalidRunnerModeError struct {
		Value RunnerMode
	}

	// InvalidConfigError aggregates the field-level problems found by
	// Config.Validate. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Problems []error
	}

	// SSHConfig configures the `wesh serve` SSH listener.
	SSHConfig struct {
		// Host is the address to bind to.
		Host string `mapstructure:"host"`
		// Port is the port to listen on (0 = auto-select).
		Port int `mapstructure:"port"`
	}

	// UIConfig holds terminal UI preferences.
	UIConfig struct {
		// Verbose enables verbose diagnostic output.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the resolved wesh configuration.
	Config struct {
		// PromptSuffix is the static text rendered after the styled cwd.
		PromptSuffix string `mapstructure:"prompt_suffix"`
		// History enables line history in the terminal.
		History bool `mapstructure:"history"`
		// BinDir is the virtual overlay directory for contributed commands.
		BinDir string `mapstructure:"bin_dir"`
		// ContribDir is the directory scanned for contribution manifests.
		// Empty means ~/.wesh/contrib.
		ContribDir string `mapstructure:"contrib_dir"`
		// InitialCwd is the working directory new sessions start in.
		InitialCwd string `mapstructure:"initial_cwd"`
		// Runner is the default runner for contributions that could use either.
		Runner RunnerMode `mapstructure:"runner"`
		// SSH configures `wesh serve`.
		SSH SSHConfig `mapstructure:"ssh"`
		// UI holds terminal UI preferences.
		UI UIConfig `mapstructure:"ui"`
	}
)

// Error implements the error interface.
func (e *InvalidRunnerModeError) Error() string {
	return fmt.Sprintf("invalid runner mode %q (valid: %s, %s)", e.Value, RunnerNative, RunnerVirtual)
}

// Unwrap returns ErrInvalidRunnerMode so callers can use errors.Is.
func (e *InvalidRunnerModeError) Unwrap() error { return ErrInvalidRunnerMode }

// String returns the string representation of the RunnerMode.
func (m RunnerMode) String() string { return string(m) }

// Validate returns nil if the RunnerMode is one of the defined modes.
func (m RunnerMode) Validate() error {
	switch m {
	case RunnerNative, RunnerVirtual:
		return nil
	default:
		return &InvalidRunnerModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidConfig plus every field-level problem so callers
// can probe with errors.Is for either the aggregate or a specific sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.Problems...)
}

// Validate checks constraints the CUE schema cannot express on its own
// (the schema never sees values supplied purely via env or defaults).
func (c *Config) Validate() error {
	var problems []error

	if err := c.Runner.Validate(); err != nil {
		problems = append(problems, err)
	}
	if !path.IsAbs(c.BinDir) {
		problems = append(problems, fmt.Errorf("%w: %q is not absolute", ErrInvalidBinDir, c.BinDir))
	}
	if strings.TrimSpace(c.PromptSuffix) == "" {
		problems = append(problems, fmt.Errorf("%w: must not be blank", ErrInvalidPromptSuffix))
	}

	if len(problems) > 0 {
		return &InvalidConfigError{Problems: problems}
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the wesh configuration.
//
// Configuration lives in a CUE file (config.cue) validated against an
// embedded schema and merged into viper, so defaults, the config file, and
// WESH_* environment variables compose in the usual precedence order.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"wesh-cli/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"wesh-cli/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "wesh"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// envPrefix namespaces environment overrides (WESH_PROMPT_SUFFIX etc.).
	envPrefix = "WESH"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the wesh configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ContribDir returns the default directory for contribution manifests.
// The path is ~/.wesh/contrib on all platforms.
func ContribDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".wesh", "contrib"), nil
}

// DefaultConfig returns the built-in defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		PromptSuffix: "$",
		History:      true,
		BinDir:       "/usr/bin",
		InitialCwd:   "/home/user",
		Runner:       RunnerNative,
		SSH:          SSHConfig{Host: "127.0.0.1", Port: 2222},
		UI:           UIConfig{Verbose: false},
	}
}

// Load resolves the configuration: defaults, then the config file (the
// --config override, $XDG_CONFIG_HOME/wesh/config.cue, or ./config.cue),
// then WESH_* environment variables. The resolved path is returned alongside
// the config; it is empty when only defaults applied.
func Load() (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("prompt_suffix", defaults.PromptSuffix)
	v.SetDefault("history", defaults.History)
	v.SetDefault("bin_dir", defaults.BinDir)
	v.SetDefault("contrib_dir", defaults.ContribDir)
	v.SetDefault("initial_cwd", defaults.InitialCwd)
	v.SetDefault("runner", string(defaults.Runner))
	v.SetDefault("ssh.host", defaults.SSH.Host)
	v.SetDefault("ssh.port", defaults.SSH.Port)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	switch {
	case configFileOverride != "":
		if !fileExists(configFileOverride) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(configFileOverride).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'wesh config show' to see the defaults").
				Wrap(fmt.Errorf("config file not found: %s", configFileOverride)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, configFileOverride); err != nil {
			return nil, "", wrapLoadError(err, configFileOverride)
		}
		resolvedPath = configFileOverride

	default:
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, "", err
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		localPath := ConfigFileName + "." + ConfigFileExt

		switch {
		case fileExists(cuePath):
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", wrapLoadError(err, cuePath)
			}
			resolvedPath = cuePath
		case fileExists(localPath):
			if err := loadCUEIntoViper(v, localPath); err != nil {
				return nil, "", wrapLoadError(err, localPath)
			}
			resolvedPath = localPath
		}
		// No config file found: defaults plus env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", wrapLoadError(err, resolvedPath)
	}

	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper validates a CUE config file against the embedded schema
// and merges the decoded map into viper, preserving defaults and allowing
// env overrides to win.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func wrapLoadError(err error, resource string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(resource).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values match the expected schema").
		WithSuggestion("See 'wesh config --help' for configuration options").
		Wrap(err).
		BuildError()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

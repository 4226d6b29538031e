// SPDX-License-Identifier: MPL-2.0

package config

var (
	// configDirOverride allows tests and flags to override the config
	// directory. Needed because os.UserHomeDir() does not reliably respect
	// the HOME environment variable on all platforms.
	configDirOverride string

	// configFileOverride is the --config flag value; when set it is used
	// exclusively and a missing file is an error rather than a fallback.
	configFileOverride string
)

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFileOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetConfigFileOverride sets an explicit config file path (--config flag).
func SetConfigFileOverride(path string) {
	configFileOverride = path
}

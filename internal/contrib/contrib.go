// SPDX-License-Identifier: MPL-2.0

// Package contrib models externally contributed commands and directory
// mounts, and keeps a live view of them as manifest files change.
//
// Extensions declare contributions in manifest files (CUE or TOML) placed
// in the contributions directory. A command contribution binds a mount
// point (e.g. /usr/bin/mdcat) to an executable identity: either an argv to
// run as a host process or an inline script for the embedded interpreter.
// A directory contribution exposes a host directory at a mount point inside
// sessions.
package contrib

import (
	"errors"
	"fmt"
	"path"
)

var (
	// ErrInvalidContribution is the sentinel error wrapped by contribution
	// validation failures.
	ErrInvalidContribution = errors.New("invalid contribution")
)

type (
	// ExecSpec identifies a host executable for a command contribution.
	ExecSpec struct {
		// Argv is the program and its fixed leading arguments. User-typed
		// arguments are appended at dispatch time.
		Argv []string `json:"argv" toml:"argv"`
		// TTY requests a pseudo-terminal for the child process.
		TTY bool `json:"tty" toml:"tty"`
	}

	// CommandMountPoint is a contributed command binding.
	CommandMountPoint struct {
		// Extension is the identity of the declaring extension.
		Extension string
		// MountPoint is the absolute path the command is mounted at.
		MountPoint string
		// Exec identifies a host executable; nil when Script is set.
		Exec *ExecSpec
		// Script is an inline shell script for the virtual runner; empty
		// when Exec is set.
		Script string
	}

	// DirectoryMountPoint is a contributed directory binding.
	DirectoryMountPoint struct {
		// Extension is the identity of the declaring extension.
		Extension string
		// Path is the source directory on the host.
		Path string
		// MountPoint is where the directory appears inside sessions.
		MountPoint string
	}

	// CommandDelta lists command contributions that appeared and vanished
	// in one reload.
	CommandDelta struct {
		Added   []CommandMountPoint
		Removed []CommandMountPoint
	}

	// ChangeEvent is delivered to subscribers after each reload that
	// changed the contributed command set.
	ChangeEvent struct {
		Commands CommandDelta
	}
)

// Name returns the command name, the final element of the mount point.
func (c CommandMountPoint) Name() string {
	return path.Base(c.MountPoint)
}

// Validate checks the structural constraints a manifest entry must satisfy
// beyond what the CUE schema enforces (TOML manifests skip the schema).
func (c CommandMountPoint) Validate() error {
	if !path.IsAbs(c.MountPoint) {
		return fmt.Errorf("%w: command mount point %q is not absolute", ErrInvalidContribution, c.MountPoint)
	}
	hasExec := c.Exec != nil && len(c.Exec.Argv) > 0
	hasScript := c.Script != ""
	if hasExec == hasScript {
		return fmt.Errorf("%w: command %q must declare exactly one of exec or script", ErrInvalidContribution, c.MountPoint)
	}
	return nil
}

// Validate checks the structural constraints for a directory contribution.
func (d DirectoryMountPoint) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("%w: directory contribution has empty source path", ErrInvalidContribution)
	}
	if !path.IsAbs(d.MountPoint) {
		return fmt.Errorf("%w: directory mount point %q is not absolute", ErrInvalidContribution, d.MountPoint)
	}
	return nil
}

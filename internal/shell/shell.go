// SPDX-License-Identifier: MPL-2.0

// Package shell implements the wesh session: a read–parse–dispatch loop
// over a line-oriented terminal, with built-ins (exit, pwd, cd) and a
// registry of contributed command handlers backed by the virtual command
// directory overlay.
//
// The package depends only on its three ports (Terminal, Contributions,
// and the Handler factory), never on a concrete terminal, manifest store,
// or runner, so sessions are testable with in-memory fakes and reusable
// across hosts (local tty, SSH connection).
package shell

import (
	"context"

	"github.com/spf13/afero"

	"wesh-cli/internal/contrib"
)

type (
	// Terminal is the pseudoterminal port: a line-oriented interactive I/O
	// device. ReadLine blocks until the user submits a full line.
	Terminal interface {
		// Prompt sets the text shown before the next ReadLine.
		Prompt(text string)
		// ReadLine blocks until a full line is available. The returned line
		// carries no trailing newline. io.EOF reports a closed terminal.
		ReadLine() (string, error)
		// Write emits text to the terminal verbatim.
		Write(text string) error
		// Dispose releases the terminal. Implementations must tolerate
		// repeated calls.
		Dispose() error
	}

	// Contributions is the contribution-source port.
	Contributions interface {
		CommandMountPoints() []contrib.CommandMountPoint
		DirectoryMountPoints() []contrib.DirectoryMountPoint
		// Subscribe registers a change callback and returns a cancel func.
		// Callbacks may be delivered from another goroutine.
		Subscribe(func(contrib.ChangeEvent)) func()
	}

	// Mount describes one filesystem view handed to dispatched commands.
	// The first mount of every dispatch is the virtual command directory
	// overlay; the rest are contributed host directories.
	Mount struct {
		// Extension is the declaring extension, empty for the overlay.
		Extension string
		// Source is the host path, or the overlay directory itself.
		Source string
		// Target is where the mount appears inside the session.
		Target string
		// Overlay is the in-memory filesystem, non-nil only for the
		// command directory entry.
		Overlay afero.Fs
	}

	// Invocation carries everything a handler needs for one dispatch.
	Invocation struct {
		Name     string
		Args     []string
		Dir      string
		Terminal Terminal
		Mounts   []Mount
	}

	// Handler is the executable behavior bound to a command name. It
	// returns the command's exit code; a non-nil error marks the dispatch
	// as failed and is reported to the terminal.
	Handler func(ctx context.Context, inv Invocation) (int, error)

	// HandlerFactory builds the handler for a contributed command. It is
	// how the session delegates to the external command-execution
	// capability without knowing its implementation.
	HandlerFactory func(contrib.CommandMountPoint) Handler
)

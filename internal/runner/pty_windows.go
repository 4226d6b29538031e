// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runner

import (
	"os"
	"os/exec"
)

// startPty has no real PTY on Windows; the child runs with its output
// piped through the returned read side instead.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}
	// The parent's write side must close so the reader sees EOF when the
	// child exits.
	_ = pw.Close()
	return pr, nil
}

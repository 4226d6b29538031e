// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runner

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// startPty starts cmd attached to a new pseudo-terminal and returns the
// controlling side.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}

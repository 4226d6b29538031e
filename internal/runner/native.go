// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"wesh-cli/internal/contrib"
	"wesh-cli/internal/shell"
)

// execHandler runs an exec contribution as a host process. The fixed argv
// from the manifest comes first, then the user-typed arguments.
func (r *Runner) execHandler(c contrib.CommandMountPoint) shell.Handler {
	return func(ctx context.Context, inv shell.Invocation) (int, error) {
		argv := append(append([]string{}, c.Exec.Argv...), inv.Args...)
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Env = append(os.Environ(), buildEnv(inv)...)
		if dirExists(inv.Dir) {
			cmd.Dir = inv.Dir
		}

		if c.Exec.TTY {
			return r.runWithPty(cmd, inv.Terminal)
		}
		return r.runPiped(cmd, inv.Terminal)
	}
}

// nativeScriptHandler runs a script contribution through the system shell,
// used when the configured runner mode is native.
func (r *Runner) nativeScriptHandler(c contrib.CommandMountPoint) shell.Handler {
	return func(ctx context.Context, inv shell.Invocation) (int, error) {
		sh, err := systemShell()
		if err != nil {
			return 1, err
		}
		// sh -c 'script' <name> <args...>; the name lands in $0.
		args := append([]string{"-c", c.Script, inv.Name}, inv.Args...)
		cmd := exec.CommandContext(ctx, sh, args...)
		cmd.Env = append(os.Environ(), buildEnv(inv)...)
		if dirExists(inv.Dir) {
			cmd.Dir = inv.Dir
		}
		return r.runPiped(cmd, inv.Terminal)
	}
}

// runPiped runs cmd with stdout and stderr streamed to the terminal.
// Stdin stays closed: dispatched commands do not read session input.
func (r *Runner) runPiped(cmd *exec.Cmd, term shell.Terminal) (int, error) {
	out := termWriter{term: term}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return exitCode(err)
	}
	return 0, nil
}

// runWithPty runs cmd attached to a pseudo-terminal and copies its
// output to the session terminal.
func (r *Runner) runWithPty(cmd *exec.Cmd, term shell.Terminal) (int, error) {
	ptmx, err := startPty(cmd)
	if err != nil {
		return 1, fmt.Errorf("starting pty: %w", err)
	}
	defer func() {
		if cerr := ptmx.Close(); cerr != nil {
			r.logger.Debug("closing pty", "error", cerr)
		}
	}()

	// EIO on pty read means the child closed its side.
	if _, err := io.Copy(termWriter{term: term}, ptmx); err != nil && !isPtyClosed(err) {
		r.logger.Debug("pty copy ended", "error", err)
	}

	if err := cmd.Wait(); err != nil {
		return exitCode(err)
	}
	return 0, nil
}

// exitCode maps a process error to its exit code. Non-exit failures
// (spawn errors) report code 1 with the error preserved.
func exitCode(err error) (int, error) {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 1, err
}

// systemShell locates the host shell, preferring $SHELL on Unix.
func systemShell() (string, error) {
	if runtime.GOOS == "windows" {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		return exec.LookPath("powershell")
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	return exec.LookPath("sh")
}

// dirExists reports whether the session cwd maps to a real host
// directory. Virtual paths like /home/user may not; the child then
// inherits the process cwd.
func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.FromSlash(dir))
	return err == nil && info.IsDir()
}

// isPtyClosed reports the read error produced when the child hangs up.
func isPtyClosed(err error) bool {
	return err != nil && strings.Contains(err.Error(), "input/output error")
}

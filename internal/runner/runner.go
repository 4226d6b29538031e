// SPDX-License-Identifier: MPL-2.0

// Package runner turns command contributions into executable session
// handlers. Exec contributions spawn host processes; script contributions
// run either in the embedded POSIX interpreter (virtual mode) or through
// the system shell (native mode).
package runner

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"wesh-cli/internal/config"
	"wesh-cli/internal/contrib"
	"wesh-cli/internal/shell"
)

type (
	// Runner builds handlers for contributed commands.
	Runner struct {
		mode   config.RunnerMode
		logger *log.Logger
	}

	// termWriter adapts the session terminal to io.Writer so child
	// processes and the embedded interpreter can stream output to it.
	termWriter struct {
		term shell.Terminal
	}
)

// New creates a runner in the given mode.
func New(mode config.RunnerMode, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{mode: mode, logger: logger}
}

// HandlerFor is the session's HandlerFactory: it picks the execution
// strategy from the contribution's shape and the configured mode.
func (r *Runner) HandlerFor(c contrib.CommandMountPoint) shell.Handler {
	if c.Script != "" {
		if r.mode == config.RunnerNative {
			return r.nativeScriptHandler(c)
		}
		return r.virtualScriptHandler(c)
	}
	return r.execHandler(c)
}

func (w termWriter) Write(b []byte) (int, error) {
	// Child output is line-oriented text over a raw stream; bare newlines
	// need a carriage return to render correctly.
	text := strings.ReplaceAll(string(b), "\n", "\r\n")
	text = strings.ReplaceAll(text, "\r\r\n", "\r\n")
	if err := w.term.Write(text); err != nil {
		return 0, err
	}
	return len(b), nil
}

// buildEnv assembles the extra environment exported to dispatched
// commands: the command identity and the session's mount table.
func buildEnv(inv shell.Invocation) []string {
	env := []string{
		"WESH_COMMAND=" + inv.Name,
		"WESH_CWD=" + inv.Dir,
	}
	if len(inv.Mounts) > 0 {
		pairs := make([]string, 0, len(inv.Mounts))
		for _, m := range inv.Mounts {
			pairs = append(pairs, fmt.Sprintf("%s=%s", m.Target, m.Source))
		}
		env = append(env, "WESH_MOUNTS="+strings.Join(pairs, ":"))
	}
	return env
}

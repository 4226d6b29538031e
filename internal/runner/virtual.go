// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"wesh-cli/internal/contrib"
	"wesh-cli/internal/shell"
)

// virtualScriptHandler runs a script contribution in the embedded POSIX
// interpreter, in-process and without a host shell.
func (r *Runner) virtualScriptHandler(c contrib.CommandMountPoint) shell.Handler {
	return func(ctx context.Context, inv shell.Invocation) (int, error) {
		prog, err := syntax.NewParser().Parse(strings.NewReader(c.Script), c.Name())
		if err != nil {
			return 1, fmt.Errorf("parsing script: %w", err)
		}

		out := termWriter{term: inv.Terminal}
		opts := []interp.RunnerOption{
			interp.Env(expand.ListEnviron(append(os.Environ(), buildEnv(inv)...)...)),
			interp.StdIO(nil, out, out),
		}
		if dirExists(inv.Dir) {
			opts = append(opts, interp.Dir(inv.Dir))
		}
		// "--" keeps user arguments like -v from being read as
		// interpreter options.
		if len(inv.Args) > 0 {
			opts = append(opts, interp.Params(append([]string{"--"}, inv.Args...)...))
		}

		run, err := interp.New(opts...)
		if err != nil {
			return 1, fmt.Errorf("creating interpreter: %w", err)
		}

		if err := run.Run(ctx, prog); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return int(status), nil
			}
			return 1, err
		}
		return 0, nil
	}
}

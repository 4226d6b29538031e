// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"testing"

	"wesh-cli/internal/config"
	"wesh-cli/internal/contrib"
	"wesh-cli/internal/shell"
)

// collectTerminal records everything written to it.
type collectTerminal struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (c *collectTerminal) Prompt(string) {}

func (c *collectTerminal) ReadLine() (string, error) { return "", nil }

func (c *collectTerminal) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(text)
	return nil
}

func (c *collectTerminal) Dispose() error { return nil }

func (c *collectTerminal) out() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func scriptContribution(script string) contrib.CommandMountPoint {
	return contrib.CommandMountPoint{
		Extension:  "test-ext",
		MountPoint: "/usr/bin/testcmd",
		Script:     script,
	}
}

func TestVirtualScriptOutput(t *testing.T) {
	t.Parallel()

	r := New(config.RunnerVirtual, nil)
	term := &collectTerminal{}
	h := r.HandlerFor(scriptContribution(`echo "hello from script"`))

	code, err := h(context.Background(), shell.Invocation{
		Name:     "testcmd",
		Terminal: term,
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := term.out(); got != "hello from script\r\n" {
		t.Errorf("output = %q, want %q", got, "hello from script\r\n")
	}
}

func TestVirtualScriptExitStatus(t *testing.T) {
	t.Parallel()

	r := New(config.RunnerVirtual, nil)
	h := r.HandlerFor(scriptContribution("exit 42"))

	code, err := h(context.Background(), shell.Invocation{
		Name:     "testcmd",
		Terminal: &collectTerminal{},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if code != 42 {
		t.Errorf("exit code = %d, want 42", code)
	}
}

func TestVirtualScriptArgs(t *testing.T) {
	t.Parallel()

	r := New(config.RunnerVirtual, nil)
	term := &collectTerminal{}
	h := r.HandlerFor(scriptContribution(`echo "$1:$2"`))

	if _, err := h(context.Background(), shell.Invocation{
		Name:     "testcmd",
		Args:     []string{"-v", "second"},
		Terminal: term,
	}); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := term.out(); got != "-v:second\r\n" {
		t.Errorf("output = %q, want %q", got, "-v:second\r\n")
	}
}

func TestVirtualScriptParseError(t *testing.T) {
	t.Parallel()

	r := New(config.RunnerVirtual, nil)
	h := r.HandlerFor(scriptContribution("if then fi"))

	code, err := h(context.Background(), shell.Invocation{
		Name:     "testcmd",
		Terminal: &collectTerminal{},
	})
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestVirtualScriptEnv(t *testing.T) {
	t.Parallel()

	r := New(config.RunnerVirtual, nil)
	term := &collectTerminal{}
	h := r.HandlerFor(scriptContribution(`echo "$WESH_COMMAND $WESH_MOUNTS"`))

	if _, err := h(context.Background(), shell.Invocation{
		Name:     "testcmd",
		Terminal: term,
		Mounts: []shell.Mount{
			{Source: "/usr/bin", Target: "/usr/bin"},
			{Source: "/srv/data", Target: "/data"},
		},
	}); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got, want := term.out(), "testcmd /usr/bin=/usr/bin:/data=/srv/data\r\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestExecContribution(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX sh on the host")
	}

	r := New(config.RunnerVirtual, nil)
	term := &collectTerminal{}
	h := r.HandlerFor(contrib.CommandMountPoint{
		Extension:  "test-ext",
		MountPoint: "/usr/bin/hostcmd",
		Exec:       &contrib.ExecSpec{Argv: []string{"sh", "-c", "echo from-host; exit 7"}},
	})

	code, err := h(context.Background(), shell.Invocation{
		Name:     "hostcmd",
		Terminal: term,
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
	if got := term.out(); !strings.Contains(got, "from-host") {
		t.Errorf("output = %q, want child stdout", got)
	}
}

func TestExecSpawnFailure(t *testing.T) {
	t.Parallel()

	r := New(config.RunnerVirtual, nil)
	h := r.HandlerFor(contrib.CommandMountPoint{
		Extension:  "test-ext",
		MountPoint: "/usr/bin/ghost",
		Exec:       &contrib.ExecSpec{Argv: []string{"wesh-test-no-such-binary"}},
	})

	code, err := h(context.Background(), shell.Invocation{
		Name:     "ghost",
		Terminal: &collectTerminal{},
	})
	if err == nil {
		t.Fatal("expected a spawn error")
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestNativeModeUsesSystemShellForScripts(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX sh on the host")
	}

	r := New(config.RunnerNative, nil)
	term := &collectTerminal{}
	h := r.HandlerFor(scriptContribution(`echo "native $1"`))

	code, err := h(context.Background(), shell.Invocation{
		Name:     "testcmd",
		Args:     []string{"arg"},
		Terminal: term,
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := term.out(); !strings.Contains(got, "native arg") {
		t.Errorf("output = %q, want the expanded script output", got)
	}
}

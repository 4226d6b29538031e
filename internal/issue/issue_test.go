// SPDX-License-Identifier: MPL-2.0

package issue_test

import (
	"errors"
	"strings"
	"testing"

	"wesh-cli/internal/issue"
)

func TestActionableErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such file")

	tests := []struct {
		name string
		err  *issue.ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &issue.ActionableError{Operation: "load configuration"},
			want: "failed to load configuration",
		},
		{
			name: "operation and resource",
			err:  &issue.ActionableError{Operation: "load manifest", Resource: "tools.wesh.cue"},
			want: "failed to load manifest: tools.wesh.cue",
		},
		{
			name: "full context",
			err:  &issue.ActionableError{Operation: "load manifest", Resource: "tools.wesh.cue", Cause: cause},
			want: "failed to load manifest: tools.wesh.cue: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorContextBuilder(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	err := issue.NewErrorContext().
		WithOperation("start SSH server").
		WithResource("127.0.0.1:22").
		WithSuggestion("Use an unprivileged port").
		Wrap(cause).
		BuildError()

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() returned %T, want *ActionableError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("BuildError() result does not wrap its cause")
	}
	if got := ae.Format(false); !strings.Contains(got, "• Use an unprivileged port") {
		t.Errorf("Format(false) = %q, missing suggestion bullet", got)
	}
	if got := ae.Format(true); !strings.Contains(got, "Error chain:") {
		t.Errorf("Format(true) = %q, missing error chain", got)
	}
}

func TestBuildErrorRequiresOperation(t *testing.T) {
	t.Parallel()

	if err := issue.NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

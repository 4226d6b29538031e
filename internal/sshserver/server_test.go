// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"testing"
)

func TestServerStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state ServerState
		want  string
	}{
		{StateCreated, "created"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{StateStopped, "stopped"},
		{StateFailed, "failed"},
		{ServerState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ServerState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNewStartsInCreatedState(t *testing.T) {
	t.Parallel()

	srv := New(Config{})
	if srv.State() != StateCreated {
		t.Errorf("State() = %s, want %s", srv.State(), StateCreated)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true for a server that never started")
	}
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	srv := New(Config{})
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if srv.State() != StateStopped {
		t.Errorf("State() = %s, want %s", srv.State(), StateStopped)
	}
	// Repeated stops are no-ops.
	if err := srv.Stop(); err != nil {
		t.Fatalf("second Stop() error: %v", err)
	}
}

func TestStartWithCancelledContext(t *testing.T) {
	t.Parallel()

	srv := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with a cancelled context should fail")
	}
	if srv.State() != StateFailed {
		t.Errorf("State() = %s, want %s", srv.State(), StateFailed)
	}
}

func TestStartAfterStopIsRejected(t *testing.T) {
	t.Parallel()

	srv := New(Config{})
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() on a stopped server should fail")
	}
}

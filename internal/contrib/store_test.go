// SPDX-License-Identifier: MPL-2.0

package contrib

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestStoreLoadMissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "absent"), quietLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := s.CommandMountPoints(); len(got) != 0 {
		t.Errorf("CommandMountPoints() = %+v, want empty", got)
	}
}

func TestStoreLoadScansRecursively(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "a.wesh.cue",
		`extension: "a", commands: [{mountPoint: "/usr/bin/alpha", script: "echo a"}]`)

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeManifest(t, sub, "b.wesh.toml",
		"extension = \"b\"\n[[commands]]\nmountPoint = \"/usr/bin/beta\"\nscript = \"echo b\"\n")

	s := NewStore(dir, quietLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	cmds := s.CommandMountPoints()
	if len(cmds) != 2 {
		t.Fatalf("CommandMountPoints() = %+v, want 2 entries", cmds)
	}
	if cmds[0].Name() != "alpha" || cmds[1].Name() != "beta" {
		t.Errorf("commands = %q, %q; want alpha, beta", cmds[0].Name(), cmds[1].Name())
	}
}

func TestStoreSkipsBrokenManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "ok.wesh.cue",
		`extension: "ok", commands: [{mountPoint: "/usr/bin/good", script: "echo"}]`)
	writeManifest(t, dir, "broken.wesh.cue", `extension: `)

	s := NewStore(dir, quietLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cmds := s.CommandMountPoints(); len(cmds) != 1 || cmds[0].Name() != "good" {
		t.Errorf("CommandMountPoints() = %+v, want only the good manifest", cmds)
	}
}

func TestStoreReloadEmitsDelta(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "a.wesh.cue",
		`extension: "a", commands: [{mountPoint: "/usr/bin/alpha", script: "echo a"}]`)

	s := NewStore(dir, quietLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var events []ChangeEvent
	cancel := s.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })
	defer cancel()

	// Two contributions added, then the original removed.
	writeManifest(t, dir, "b.wesh.cue",
		`extension: "b", commands: [
			{mountPoint: "/usr/bin/beta", script: "echo b"},
			{mountPoint: "/usr/bin/gamma", script: "echo g"},
		]`)
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "a.wesh.cue")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if added := events[0].Commands.Added; len(added) != 2 || added[0].Name() != "beta" || added[1].Name() != "gamma" {
		t.Errorf("first event Added = %+v", added)
	}
	if removed := events[1].Commands.Removed; len(removed) != 1 || removed[0].Name() != "alpha" {
		t.Errorf("second event Removed = %+v", removed)
	}

	// Final membership is the surviving set.
	cmds := s.CommandMountPoints()
	if len(cmds) != 2 || cmds[0].Name() != "beta" || cmds[1].Name() != "gamma" {
		t.Errorf("CommandMountPoints() = %+v, want beta and gamma", cmds)
	}
}

func TestStoreReloadNoChangeNoEvent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "a.wesh.cue",
		`extension: "a", commands: [{mountPoint: "/usr/bin/alpha", script: "echo a"}]`)

	s := NewStore(dir, quietLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	calls := 0
	cancel := s.Subscribe(func(ChangeEvent) { calls++ })
	defer cancel()

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if calls != 0 {
		t.Errorf("subscriber called %d times for an unchanged reload, want 0", calls)
	}
}

func TestStoreSubscribeCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(dir, quietLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	calls := 0
	cancel := s.Subscribe(func(ChangeEvent) { calls++ })
	cancel()

	writeManifest(t, dir, "a.wesh.cue",
		`extension: "a", commands: [{mountPoint: "/usr/bin/alpha", script: "echo a"}]`)
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if calls != 0 {
		t.Errorf("cancelled subscriber called %d times, want 0", calls)
	}
}

func TestDiffCommandsChangedIdentityRebinds(t *testing.T) {
	t.Parallel()

	old := map[string]CommandMountPoint{
		"/usr/bin/a": {Extension: "x", MountPoint: "/usr/bin/a", Script: "echo 1"},
	}
	next := map[string]CommandMountPoint{
		"/usr/bin/a": {Extension: "x", MountPoint: "/usr/bin/a", Script: "echo 2"},
	}

	delta := diffCommands(old, next)
	if len(delta.Removed) != 1 || len(delta.Added) != 1 {
		t.Errorf("diffCommands() = %+v, want removed+added for changed identity", delta)
	}
}

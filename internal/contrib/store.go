// SPDX-License-Identifier: MPL-2.0

package contrib

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// manifestPatterns select manifest files anywhere under the contributions
// directory, so extensions can keep their manifests in subdirectories.
var manifestPatterns = []string{
	"**/*.wesh.cue",
	"**/*.wesh.toml",
}

type (
	// Store holds the current set of contributions parsed from a directory
	// of manifest files and notifies subscribers when reloads change the
	// contributed command set. Safe for concurrent use; sessions read from
	// it while the watcher goroutine reloads it.
	Store struct {
		dir    string
		logger *log.Logger

		mu       sync.RWMutex
		commands map[string]CommandMountPoint   // keyed by mount point
		dirs     map[string]DirectoryMountPoint // keyed by mount point
		subs     map[int]func(ChangeEvent)
		nextSub  int
	}
)

// NewStore creates a Store over the given contributions directory. The
// directory does not have to exist; a missing directory is an empty set.
func NewStore(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "contrib"})
	}
	return &Store{
		dir:      dir,
		logger:   logger,
		commands: make(map[string]CommandMountPoint),
		dirs:     make(map[string]DirectoryMountPoint),
		subs:     make(map[int]func(ChangeEvent)),
	}
}

// Dir returns the contributions directory.
func (s *Store) Dir() string { return s.dir }

// Load performs the initial scan. Unlike Reload it does not notify
// subscribers; callers register handlers from the loaded snapshot.
func (s *Store) Load() error {
	commands, dirs, err := s.scan()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.commands = commands
	s.dirs = dirs
	s.mu.Unlock()
	return nil
}

// Reload rescans the directory, swaps in the new snapshot, and delivers a
// ChangeEvent with the command delta to every subscriber. No event is
// delivered when the command set is unchanged.
func (s *Store) Reload() error {
	commands, dirs, err := s.scan()
	if err != nil {
		return err
	}

	s.mu.Lock()
	delta := diffCommands(s.commands, commands)
	s.commands = commands
	s.dirs = dirs
	subs := make([]func(ChangeEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if len(delta.Added) == 0 && len(delta.Removed) == 0 {
		return nil
	}

	event := ChangeEvent{Commands: delta}
	for _, fn := range subs {
		fn(event)
	}
	return nil
}

// CommandMountPoints returns the current command contributions, sorted by
// mount point for deterministic iteration.
func (s *Store) CommandMountPoints() []CommandMountPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CommandMountPoint, 0, len(s.commands))
	for _, c := range s.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MountPoint < out[j].MountPoint })
	return out
}

// DirectoryMountPoints returns the current directory contributions, sorted
// by mount point.
func (s *Store) DirectoryMountPoints() []DirectoryMountPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DirectoryMountPoint, 0, len(s.dirs))
	for _, d := range s.dirs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MountPoint < out[j].MountPoint })
	return out
}

// Subscribe registers fn for change events and returns a cancel function.
// Events are delivered synchronously from whichever goroutine called Reload.
func (s *Store) Subscribe(fn func(ChangeEvent)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// scan parses every manifest under the directory. A manifest that fails to
// parse is logged and skipped so one broken extension cannot take down the
// whole contribution set.
func (s *Store) scan() (map[string]CommandMountPoint, map[string]DirectoryMountPoint, error) {
	commands := make(map[string]CommandMountPoint)
	dirs := make(map[string]DirectoryMountPoint)

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return commands, dirs, nil
	}

	fsys := os.DirFS(s.dir)
	var paths []string
	for _, pattern := range manifestPatterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("scan contributions: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		full := filepath.Join(s.dir, filepath.FromSlash(rel))
		m, err := ParseManifestFile(full)
		if err != nil {
			s.logger.Warn("skipping manifest", "path", rel, "err", err)
			continue
		}
		for _, c := range m.CommandMountPoints() {
			if prev, ok := commands[c.MountPoint]; ok {
				s.logger.Warn("command mount point collision",
					"mountPoint", c.MountPoint, "kept", prev.Extension, "dropped", c.Extension)
				continue
			}
			commands[c.MountPoint] = c
		}
		for _, d := range m.DirectoryMountPoints() {
			if prev, ok := dirs[d.MountPoint]; ok {
				s.logger.Warn("directory mount point collision",
					"mountPoint", d.MountPoint, "kept", prev.Extension, "dropped", d.Extension)
				continue
			}
			dirs[d.MountPoint] = d
		}
	}

	return commands, dirs, nil
}

// diffCommands computes the delta between two command snapshots. An entry
// whose executable identity changed counts as removed-then-added so
// sessions rebind its handler.
func diffCommands(old, next map[string]CommandMountPoint) CommandDelta {
	var delta CommandDelta

	for mp, c := range next {
		prev, ok := old[mp]
		if !ok {
			delta.Added = append(delta.Added, c)
			continue
		}
		if !sameCommand(prev, c) {
			delta.Removed = append(delta.Removed, prev)
			delta.Added = append(delta.Added, c)
		}
	}
	for mp, c := range old {
		if _, ok := next[mp]; !ok {
			delta.Removed = append(delta.Removed, c)
		}
	}

	sort.Slice(delta.Added, func(i, j int) bool { return delta.Added[i].MountPoint < delta.Added[j].MountPoint })
	sort.Slice(delta.Removed, func(i, j int) bool { return delta.Removed[i].MountPoint < delta.Removed[j].MountPoint })
	return delta
}

func sameCommand(a, b CommandMountPoint) bool {
	if a.Extension != b.Extension || a.Script != b.Script {
		return false
	}
	if (a.Exec == nil) != (b.Exec == nil) {
		return false
	}
	if a.Exec != nil {
		if a.Exec.TTY != b.Exec.TTY || len(a.Exec.Argv) != len(b.Exec.Argv) {
			return false
		}
		for i := range a.Exec.Argv {
			if a.Exec.Argv[i] != b.Exec.Argv[i] {
				return false
			}
		}
	}
	return true
}

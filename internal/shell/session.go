// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"wesh-cli/internal/contrib"
	"wesh-cli/internal/vfs"
)

// cwdStyle renders the working directory inside the prompt.
var cwdStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))

type (
	// Options configures a Session. Terminal, Contributions, and NewHandler
	// are required.
	Options struct {
		// Terminal is the session's interactive I/O device. The session
		// takes ownership and disposes it on exit.
		Terminal Terminal
		// Contributions supplies command and directory mount points and
		// the change feed.
		Contributions Contributions
		// NewHandler builds the handler for each qualifying contributed
		// command.
		NewHandler HandlerFactory
		// InitialDir is the starting working directory (default /home/user).
		InitialDir string
		// PromptSuffix is the static text after the styled cwd (default $).
		PromptSuffix string
		// BinDir is the virtual command directory (default /usr/bin).
		BinDir string
	}

	// Session is one interactive shell session. Construction registers
	// handlers for the contributions already known and subscribes to the
	// change feed; Run drives the read–parse–dispatch loop until exit.
	//
	// Sessions sharing one contribution source are otherwise independent:
	// each has its own registry, overlay, and working directory.
	Session struct {
		term       Terminal
		contribs   Contributions
		newHandler HandlerFactory
		registry   *Registry
		overlay    *vfs.BinOverlay
		binDir     string
		suffix     string

		// cwd is touched only by the session's own loop.
		cwd string

		unsubscribe func()
		disposeOnce sync.Once
		disposeErr  error
	}
)

// NewSession constructs a session, registers a handler per qualifying
// contribution already known, and subscribes to the change feed.
func NewSession(opts Options) (*Session, error) {
	if opts.Terminal == nil {
		return nil, errors.New("shell: nil terminal")
	}
	if opts.Contributions == nil {
		return nil, errors.New("shell: nil contribution source")
	}
	if opts.NewHandler == nil {
		return nil, errors.New("shell: nil handler factory")
	}

	binDir := opts.BinDir
	if binDir == "" {
		binDir = "/usr/bin"
	}
	cwd := opts.InitialDir
	if cwd == "" {
		cwd = "/home/user"
	}
	suffix := opts.PromptSuffix
	if suffix == "" {
		suffix = "$"
	}

	overlay, err := vfs.NewBinOverlay(binDir)
	if err != nil {
		return nil, fmt.Errorf("shell: create command overlay: %w", err)
	}

	s := &Session{
		term:       opts.Terminal,
		contribs:   opts.Contributions,
		newHandler: opts.NewHandler,
		registry:   NewRegistry(),
		overlay:    overlay,
		binDir:     binDir,
		suffix:     suffix,
		cwd:        cwd,
	}

	for _, c := range opts.Contributions.CommandMountPoints() {
		s.registerContribution(c)
	}
	s.unsubscribe = opts.Contributions.Subscribe(s.applyChange)

	return s, nil
}

// Cwd returns the session's current working directory.
func (s *Session) Cwd() string { return s.cwd }

// Registry exposes the command registry, mainly for command listings.
func (s *Session) Registry() *Registry { return s.registry }

// Overlay exposes the virtual command directory overlay.
func (s *Session) Overlay() *vfs.BinOverlay { return s.overlay }

// RegisterCommandHandler inserts the placeholder entry for name into the
// overlay, then binds name to handler. A prior binding for the same name
// is overwritten.
func (s *Session) RegisterCommandHandler(name string, handler Handler) error {
	if err := s.overlay.AddPlaceholder(name); err != nil {
		return fmt.Errorf("shell: add placeholder for %q: %w", name, err)
	}
	s.registry.Bind(name, handler)
	return nil
}

// UnregisterCommandHandler removes only the registry binding. The overlay
// placeholder intentionally survives, still visible in listings but
// neither readable nor dispatchable.
func (s *Session) UnregisterCommandHandler(name string) {
	s.registry.Unbind(name)
}

// Run drives the loop until exit, end of input, or context cancellation.
// The terminal is disposed exactly once on every return path.
func (s *Session) Run(ctx context.Context) error {
	defer s.dispose() //nolint:errcheck // reported via the exit path below

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.term.Prompt(cwdStyle.Render(s.cwd) + " " + s.suffix + " ")

		line, err := s.term.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s.dispose()
			}
			return err
		}

		cl := ParseCommandLine(line)
		switch cl.Name {
		case "exit":
			return s.dispose()
		case "pwd":
			s.write(s.cwd + "\r\n")
		case "cd":
			s.builtinCd(cl.Args)
		default:
			s.dispatch(ctx, cl)
		}
	}
}

// builtinCd implements cd: exactly one argument, absolute paths replace
// the cwd verbatim, relative paths are joined onto it. No existence check.
func (s *Session) builtinCd(args []string) {
	if len(args) != 1 {
		s.reportError("cd", "expected exactly one argument")
		return
	}
	if path.IsAbs(args[0]) {
		s.cwd = args[0]
		return
	}
	s.cwd = path.Join(s.cwd, args[0])
}

// dispatch resolves cl against the registry and invokes the handler with a
// freshly computed mount list. Handler failures are reported and the loop
// continues; dispatch never mutates the registry.
func (s *Session) dispatch(ctx context.Context, cl CommandLine) {
	handler, ok := s.registry.Lookup(cl.Name)
	if !ok {
		s.reportError(cl.Name, "command not found")
		return
	}

	_, err := handler(ctx, Invocation{
		Name:     cl.Name,
		Args:     cl.Args,
		Dir:      s.cwd,
		Terminal: s.term,
		Mounts:   s.mounts(),
	})
	if err != nil {
		s.reportError(fmt.Sprintf("executing %s failed", cl.Name), err.Error())
	}
}

// mounts assembles the dispatch-time filesystem view: the command overlay
// first, then one entry per currently-known directory contribution.
// Computed fresh on every dispatch so handlers always see the current set.
func (s *Session) mounts() []Mount {
	dirs := s.contribs.DirectoryMountPoints()
	out := make([]Mount, 0, len(dirs)+1)
	out = append(out, Mount{
		Source:  s.binDir,
		Target:  s.binDir,
		Overlay: s.overlay.Fs(),
	})
	for _, d := range dirs {
		out = append(out, Mount{
			Extension: d.Extension,
			Source:    d.Path,
			Target:    d.MountPoint,
		})
	}
	return out
}

// applyChange incrementally updates the registry from a contribution
// change event. Removals are applied before additions so a mount point
// moving between extensions in one event lands on the new binding.
func (s *Session) applyChange(ev contrib.ChangeEvent) {
	for _, c := range ev.Commands.Removed {
		if s.qualifies(c) {
			s.UnregisterCommandHandler(c.Name())
		}
	}
	for _, c := range ev.Commands.Added {
		s.registerContribution(c)
	}
}

// registerContribution turns a qualifying contribution into a registry
// binding. Contributions mounted outside the command directory are ignored
// for dispatch purposes.
func (s *Session) registerContribution(c contrib.CommandMountPoint) {
	if !s.qualifies(c) {
		return
	}
	if err := s.RegisterCommandHandler(c.Name(), s.newHandler(c)); err != nil {
		s.reportError(c.Name(), err.Error())
	}
}

// qualifies reports whether the contribution's parent directory is exactly
// the virtual command directory.
func (s *Session) qualifies(c contrib.CommandMountPoint) bool {
	return path.Dir(c.MountPoint) == s.binDir
}

// reportError writes one line in the shell's error protocol:
// "-wesh: <scope>: <message>\r\n".
func (s *Session) reportError(scope, message string) {
	s.write(fmt.Sprintf("-wesh: %s: %s\r\n", scope, message))
}

func (s *Session) write(text string) {
	// A terminal that cannot be written to cannot show the failure either.
	_ = s.term.Write(text)
}

// dispose cancels the change subscription and disposes the terminal,
// exactly once across all return paths.
func (s *Session) dispose() error {
	s.disposeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.disposeErr = s.term.Dispose()
	})
	return s.disposeErr
}

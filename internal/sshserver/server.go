// SPDX-License-Identifier: MPL-2.0

// Package sshserver exposes wesh sessions over SSH using the Wish
// library. Every accepted connection gets its own session loop wired to
// the shared contribution store, so `ssh -p 2222 localhost` drops the
// client straight into the shell.
//
// The server binds to loopback by default and performs no
// authentication; treat any non-local bind as deliberately open.
package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"

	"wesh-cli/internal/shell"
	"wesh-cli/internal/termio"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated ServerState = iota
	// StateStarting indicates the server is in the process of starting.
	StateStarting
	// StateRunning indicates the server is accepting connections.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or hit a fatal
	// error (terminal state).
	StateFailed
)

type (
	// ServerState represents the lifecycle state of the server.
	ServerState int32

	// SessionConfig carries everything a per-connection session needs.
	SessionConfig struct {
		// Contributions is the shared live contribution source.
		Contributions shell.Contributions
		// NewHandler builds handlers for contributed commands.
		NewHandler shell.HandlerFactory
		// InitialDir, PromptSuffix and BinDir configure each session.
		InitialDir   string
		PromptSuffix string
		BinDir       string
		// History enables line recall in the per-connection editor.
		History bool
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// HostKeyPath is where the server host key lives; Wish creates
		// one on first start when the file is missing.
		HostKeyPath string
		// ShutdownTimeout bounds graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
		// StartupTimeout bounds the wait for readiness (default: 5s).
		StartupTimeout time.Duration
		// Session configures the per-connection shell sessions.
		Session SessionConfig
	}

	// Server hosts wesh sessions over SSH. A Server instance is
	// single-use: once stopped or failed, create a new one.
	Server struct {
		cfg Config

		state atomic.Int32

		stateMu  sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string

		ctx       context.Context
		cancel    context.CancelFunc
		wg        sync.WaitGroup
		startedCh chan struct{}
		errCh     chan error
		lastErr   error

		logger *log.Logger
	}
)

// String returns a human-readable representation of the server state.
func (s ServerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// New creates an SSH server. The server is not started; call Start to
// begin accepting connections.
func New(cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:       cfg,
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "wesh-ssh",
		}),
	}
	s.state.Store(int32(StateCreated))
	return s
}

// Start starts the server and blocks until it is ready to accept
// connections, fails to start, or the startup timeout elapses.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return s.lastErr
	default:
	}

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", ServerState(s.state.Load()))
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.lastErr
	}

	s.stateMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.stateMu.Unlock()

	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithMiddleware(
			activeterm.Middleware(),
			s.sessionMiddleware(),
		),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}

	srv, err := wish.NewServer(opts...)
	if err != nil {
		_ = listener.Close()
		s.transitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.lastErr
	}

	s.stateMu.Lock()
	s.srv = srv
	s.stateMu.Unlock()

	s.wg.Add(1)
	go s.serve()

	select {
	case <-s.startedCh:
		s.logger.Info("listening", "address", s.addr)
		return nil
	case err := <-s.errCh:
		s.transitionToFailed(err)
		return err
	case <-startupCtx.Done():
		s.cancel()
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.lastErr
	}
}

// Stop gracefully stops the server. Safe to call more than once.
func (s *Server) Stop() error {
	for {
		current := ServerState(s.state.Load())
		switch current {
		case StateStopped, StateFailed:
			return nil
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return nil
			}
			continue
		case StateStopping:
			s.wg.Wait()
			return nil
		case StateStarting, StateRunning:
			if !s.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			return s.doStop()
		default:
			return fmt.Errorf("unknown server state: %d", current)
		}
	}
}

// Err returns a channel that receives fatal server errors. The channel
// is closed when the server stops.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// State returns the current server state.
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Address returns the bound address (host:port), blocking until the
// server has started or failed.
func (s *Server) Address() string {
	select {
	case <-s.startedCh:
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return s.addr
	case <-s.ctx.Done():
		return ""
	}
}

// Port returns the listening port, or 0 if the server never started.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0
	}
	return port
}

// Wait blocks until the server stops, returning the fatal error if it
// failed.
func (s *Server) Wait() error {
	s.wg.Wait()
	if s.State() == StateFailed {
		return s.lastErr
	}
	return nil
}

// serve runs the SSH accept loop.
func (s *Server) serve() {
	defer s.wg.Done()

	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	s.stateMu.Lock()
	srv := s.srv
	listener := s.listener
	s.stateMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err != nil {
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		select {
		case s.errCh <- fmt.Errorf("serve error: %w", err):
		default:
			s.logger.Error("serve error (channel full)", "error", err)
		}
	}
}

func (s *Server) doStop() error {
	if s.cancel != nil {
		s.cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.stateMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.stateMu.Unlock()

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	s.logger.Info("stopped")
	close(s.errCh)
	return shutdownErr
}

func (s *Server) transitionToFailed(err error) {
	s.lastErr = err
	s.state.Store(int32(StateFailed))
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case s.errCh <- err:
	default:
	}
}

// sessionMiddleware runs a full shell session on every connection.
// activeterm has already rejected sessions without a PTY.
func (s *Server) sessionMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			code := s.runShellSession(sess)
			_ = sess.Exit(code)
		}
	}
}

// runShellSession wires one SSH session to a session loop and returns
// the exit code reported to the client.
func (s *Server) runShellSession(sess ssh.Session) int {
	ptyReq, winCh, _ := sess.Pty()

	term := termio.NewLineTerminal(sess, termio.Options{
		History: s.cfg.Session.History,
		Width:   ptyReq.Window.Width,
		Height:  ptyReq.Window.Height,
	})

	// Window resizes arrive for the lifetime of the connection.
	go func() {
		for win := range winCh {
			if err := term.Resize(win.Width, win.Height); err != nil {
				s.logger.Debug("resize failed", "error", err)
			}
		}
	}()

	session, err := shell.NewSession(shell.Options{
		Terminal:      term,
		Contributions: s.cfg.Session.Contributions,
		NewHandler:    s.cfg.Session.NewHandler,
		InitialDir:    s.cfg.Session.InitialDir,
		PromptSuffix:  s.cfg.Session.PromptSuffix,
		BinDir:        s.cfg.Session.BinDir,
	})
	if err != nil {
		s.logger.Error("session setup failed", "user", sess.User(), "error", err)
		return 1
	}

	s.logger.Info("session started", "user", sess.User(), "remote", sess.RemoteAddr())
	if err := session.Run(sess.Context()); err != nil {
		s.logger.Error("session ended with error", "user", sess.User(), "error", err)
		return 1
	}
	s.logger.Info("session ended", "user", sess.User())
	return 0
}

// isClosedConnError checks for "use of closed network connection".
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}

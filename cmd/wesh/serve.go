// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"wesh-cli/internal/config"
	"wesh-cli/internal/sshserver"
)

var (
	serveHost string
	servePort int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive sessions over SSH",
		Long: `Serve wesh sessions over SSH.

Every accepted connection gets its own session loop; all sessions share
one live view of the contribution manifests. The server binds to
loopback by default and performs no authentication.`,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (default from config, 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config, 2222)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.New(formatErrorForDisplay(err))
	}

	host := cfg.SSH.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.SSH.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}

	logger := newLogger("wesh-serve")
	store, err := setupContributions(cmd.Context(), cfg, logger)
	if err != nil {
		return errors.New(formatErrorForDisplay(err))
	}
	_, _, sessCfg := sessionOptions(cfg, store, logger)

	hostKeyPath := ""
	if dir, err := config.ConfigDir(); err == nil {
		hostKeyPath = filepath.Join(dir, "ssh_host_ed25519")
	}

	srv := sshserver.New(sshserver.Config{
		Host:        host,
		Port:        port,
		HostKeyPath: hostKeyPath,
		Session:     sessCfg,
	})

	if err := srv.Start(cmd.Context()); err != nil {
		return err
	}
	logger.Info("serving sessions", "address", srv.Address())

	select {
	case <-cmd.Context().Done():
		return srv.Stop()
	case err, ok := <-srv.Err():
		if ok && err != nil {
			_ = srv.Stop()
			return err
		}
		return nil
	}
}

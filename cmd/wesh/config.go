// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"wesh-cli/internal/config"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the wesh configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE:  runConfigShow,
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE:  runConfigPath,
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, resolvedPath, err := config.Load()
	if err != nil {
		return errors.New(formatErrorForDisplay(err))
	}

	out := cmd.OutOrStdout()
	source := resolvedPath
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintln(out, TitleStyle.Render("wesh configuration")+SubtitleStyle.Render(" ("+source+")"))
	fmt.Fprintf(out, "  %s %q\n", CmdStyle.Render("prompt_suffix"), cfg.PromptSuffix)
	fmt.Fprintf(out, "  %s %v\n", CmdStyle.Render("history"), cfg.History)
	fmt.Fprintf(out, "  %s %s\n", CmdStyle.Render("bin_dir"), cfg.BinDir)
	fmt.Fprintf(out, "  %s %s\n", CmdStyle.Render("contrib_dir"), contribDirOrDefault(cfg))
	fmt.Fprintf(out, "  %s %s\n", CmdStyle.Render("initial_cwd"), cfg.InitialCwd)
	fmt.Fprintf(out, "  %s %s\n", CmdStyle.Render("runner"), cfg.Runner)
	fmt.Fprintf(out, "  %s %s:%d\n", CmdStyle.Render("ssh"), cfg.SSH.Host, cfg.SSH.Port)
	fmt.Fprintf(out, "  %s %v\n", CmdStyle.Render("ui.verbose"), cfg.UI.Verbose)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	_, resolvedPath, err := config.Load()
	if err != nil {
		return errors.New(formatErrorForDisplay(err))
	}

	if resolvedPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), resolvedPath)
		return nil
	}

	// No file in play: print where one would be picked up.
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(),
		SubtitleStyle.Render("no config file found, would use: ")+
			filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}

func contribDirOrDefault(cfg *config.Config) string {
	if cfg.ContribDir != "" {
		return cfg.ContribDir
	}
	dir, err := config.ContribDir()
	if err != nil {
		return "~/.wesh/contrib"
	}
	return dir
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

//go:embed manual.md
var manual string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Read the wesh manual",
	RunE:  runDocs,
}

func runDocs(cmd *cobra.Command, _ []string) error {
	// Plain markdown when output is piped.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), manual)
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	out, err := renderer.Render(manual)
	if err != nil {
		return fmt.Errorf("rendering manual: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

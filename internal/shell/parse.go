// SPDX-License-Identifier: MPL-2.0

package shell

import "strings"

// CommandLine is one parsed input line: the command name and its argument
// list. Recreated for every loop iteration; never stored.
type CommandLine struct {
	// Name is the first token, kept even when empty.
	Name string
	// Args are the remaining tokens, trimmed, with empty tokens dropped.
	Args []string
}

// ParseCommandLine splits a raw input line into a CommandLine. One trailing
// newline (with an optional preceding carriage return) is stripped, then
// the line is split strictly on single spaces: the first token becomes the
// command name even if it is empty, the remaining tokens are whitespace
// trimmed and empty ones discarded.
func ParseCommandLine(line string) CommandLine {
	if strings.HasSuffix(line, "\n") {
		line = strings.TrimSuffix(line[:len(line)-1], "\r")
	}

	tokens := strings.Split(line, " ")
	cl := CommandLine{Name: tokens[0]}
	for _, tok := range tokens[1:] {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			cl.Args = append(cl.Args, tok)
		}
	}
	return cl
}

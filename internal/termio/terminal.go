// SPDX-License-Identifier: MPL-2.0

// Package termio adapts a raw terminal stream into the line-oriented
// Terminal port that shell sessions consume. It builds on the
// golang.org/x/term line editor, which handles echo, cursor movement
// and (optionally) history recall over any io.ReadWriter.
package termio

import (
	"io"
	"sync"

	"golang.org/x/term"
)

type (
	// Options configures a LineTerminal.
	Options struct {
		// History enables up-arrow recall of previous lines.
		History bool
		// Width and Height are the initial terminal dimensions. Zero
		// values leave the editor's defaults in place.
		Width, Height int
		// OnDispose runs once when the terminal is disposed, typically
		// restoring the underlying stream (raw mode, connection close).
		OnDispose func() error
	}

	// LineTerminal is a Terminal backed by an x/term line editor over
	// an arbitrary byte stream (a local TTY in raw mode, an SSH
	// channel, or a pipe in tests).
	LineTerminal struct {
		mu      sync.Mutex
		editor  *term.Terminal
		dispose func() error
		once    sync.Once
	}

	// noHistory satisfies term.History while remembering nothing, so
	// up-arrow is inert when history is disabled.
	noHistory struct{}
)

func (noHistory) Add(string) {}

func (noHistory) Len() int { return 0 }

func (noHistory) At(int) string { return "" }

// NewLineTerminal wraps stream in a line editor. The stream must
// already deliver input byte-at-a-time (raw mode for local TTYs; SSH
// channels arrive that way).
func NewLineTerminal(stream io.ReadWriter, opts Options) *LineTerminal {
	editor := term.NewTerminal(stream, "")
	if !opts.History {
		editor.History = noHistory{}
	}
	if opts.Width > 0 && opts.Height > 0 {
		// The editor ignores size errors; so do we.
		_ = editor.SetSize(opts.Width, opts.Height)
	}
	return &LineTerminal{editor: editor, dispose: opts.OnDispose}
}

// Prompt sets the text shown before the cursor on the next read.
func (t *LineTerminal) Prompt(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.editor.SetPrompt(text)
}

// ReadLine blocks until the user submits a line. The returned line has
// no trailing newline. It returns io.EOF when the stream ends.
func (t *LineTerminal) ReadLine() (string, error) {
	return t.editor.ReadLine()
}

// Write sends text to the terminal. Callers are expected to terminate
// lines with \r\n, as the stream is raw.
func (t *LineTerminal) Write(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.editor.Write([]byte(text))
	return err
}

// Resize propagates a window-size change to the editor.
func (t *LineTerminal) Resize(width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editor.SetSize(width, height)
}

// Dispose releases the underlying stream. Safe to call more than once;
// only the first call runs the OnDispose hook.
func (t *LineTerminal) Dispose() error {
	var err error
	t.once.Do(func() {
		if t.dispose != nil {
			err = t.dispose()
		}
	})
	return err
}

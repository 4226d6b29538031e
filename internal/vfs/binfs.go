// SPDX-License-Identifier: MPL-2.0

// Package vfs provides the in-memory overlay that stands in for the
// shell's command directory (normally /usr/bin).
//
// Each registered command gets a placeholder entry so directory listings
// show a plausible executable, but the entries exist only to be visible:
// opening one fails with a permission error, because execution routes
// through the command registry rather than the file content.
package vfs

import (
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"
)

// PlaceholderSize is the byte size reported for every placeholder entry.
// The value is an arbitrary non-zero constant; it only has to make the
// entry look like a real executable in listings.
const PlaceholderSize int64 = 1047646

type (
	// BinOverlay is the in-memory command directory. Entries are added via
	// AddPlaceholder and are never removed; unbinding a command from the
	// registry intentionally leaves its placeholder behind.
	BinOverlay struct {
		mem  afero.Fs
		deny *denyReadFs
		dir  string
	}

	// denyReadFs wraps the backing memory filesystem and rejects every open
	// except the overlay directory itself, which must stay listable.
	denyReadFs struct {
		afero.Fs
		root string
	}
)

// NewBinOverlay creates an empty overlay rooted at dir (e.g. "/usr/bin").
func NewBinOverlay(dir string) (*BinOverlay, error) {
	dir = path.Clean(dir)
	mem := afero.NewMemMapFs()
	if err := mem.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &BinOverlay{
		mem:  mem,
		deny: &denyReadFs{Fs: mem, root: dir},
		dir:  dir,
	}, nil
}

// Dir returns the overlay's mount directory.
func (o *BinOverlay) Dir() string { return o.dir }

// Fs returns the read-denying filesystem view handed to dispatched
// commands as part of their mount list.
func (o *BinOverlay) Fs() afero.Fs { return o.deny }

// AddPlaceholder inserts (or replaces) the placeholder entry for name.
// The entry is sized PlaceholderSize and marked executable.
func (o *BinOverlay) AddPlaceholder(name string) error {
	p := path.Join(o.dir, name)
	f, err := o.mem.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if err := f.Truncate(PlaceholderSize); err != nil {
		f.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return f.Close()
}

// Names returns the placeholder names currently visible, sorted.
func (o *BinOverlay) Names() ([]string, error) {
	infos, err := afero.ReadDir(o.deny, o.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open allows the overlay directory itself (listings need it) and denies
// everything else with a permission error.
func (d *denyReadFs) Open(name string) (afero.File, error) {
	if path.Clean(name) == d.root {
		return d.Fs.Open(name)
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

// OpenFile mirrors Open's policy for flag-carrying opens.
func (d *denyReadFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if path.Clean(name) == d.root {
		return d.Fs.OpenFile(name, flag, perm)
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

// Create is always denied; placeholders are added through the overlay only.
func (d *denyReadFs) Create(name string) (afero.File, error) {
	return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrPermission}
}

// SPDX-License-Identifier: MPL-2.0

package contrib

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"wesh-cli/pkg/cueutil"
)

const (
	// ManifestSuffixCUE marks CUE manifest files.
	ManifestSuffixCUE = ".wesh.cue"
	// ManifestSuffixTOML marks TOML manifest files.
	ManifestSuffixTOML = ".wesh.toml"
)

//go:embed manifest_schema.cue
var manifestSchema string

type (
	// Manifest is a single contribution manifest file.
	Manifest struct {
		// Extension is the identity of the declaring extension.
		Extension string `json:"extension" toml:"extension"`
		// Commands are the command contributions.
		Commands []ManifestCommand `json:"commands" toml:"commands"`
		// Directories are the directory contributions.
		Directories []ManifestDirectory `json:"directories" toml:"directories"`
	}

	// ManifestCommand is one command entry in a manifest.
	ManifestCommand struct {
		MountPoint string    `json:"mountPoint" toml:"mountPoint"`
		Exec       *ExecSpec `json:"exec" toml:"exec"`
		Script     string    `json:"script" toml:"script"`
	}

	// ManifestDirectory is one directory entry in a manifest.
	ManifestDirectory struct {
		Path       string `json:"path" toml:"path"`
		MountPoint string `json:"mountPoint" toml:"mountPoint"`
	}
)

// IsManifestPath reports whether p names a manifest file by suffix.
func IsManifestPath(p string) bool {
	return strings.HasSuffix(p, ManifestSuffixCUE) || strings.HasSuffix(p, ManifestSuffixTOML)
}

// ParseManifestFile reads and validates a manifest file, dispatching on the
// file suffix. CUE manifests are validated against the embedded schema;
// TOML manifests rely on the Go-side Validate checks only.
func ParseManifestFile(p string) (*Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m *Manifest
	switch {
	case strings.HasSuffix(p, ManifestSuffixCUE):
		result, err := cueutil.Decode[Manifest](manifestSchema, data, "#Manifest",
			cueutil.WithFilename(filepath.Base(p)))
		if err != nil {
			return nil, err
		}
		m = result.Value
	case strings.HasSuffix(p, ManifestSuffixTOML):
		var decoded Manifest
		if err := toml.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		m = &decoded
	default:
		return nil, fmt.Errorf("%s: not a manifest file (want %s or %s)",
			filepath.Base(p), ManifestSuffixCUE, ManifestSuffixTOML)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	return m, nil
}

// CommandMountPoints converts the manifest's command entries, stamping each
// with the declaring extension.
func (m *Manifest) CommandMountPoints() []CommandMountPoint {
	out := make([]CommandMountPoint, 0, len(m.Commands))
	for _, c := range m.Commands {
		out = append(out, CommandMountPoint{
			Extension:  m.Extension,
			MountPoint: c.MountPoint,
			Exec:       c.Exec,
			Script:     c.Script,
		})
	}
	return out
}

// DirectoryMountPoints converts the manifest's directory entries.
func (m *Manifest) DirectoryMountPoints() []DirectoryMountPoint {
	out := make([]DirectoryMountPoint, 0, len(m.Directories))
	for _, d := range m.Directories {
		out = append(out, DirectoryMountPoint{
			Extension:  m.Extension,
			Path:       d.Path,
			MountPoint: d.MountPoint,
		})
	}
	return out
}

func (m *Manifest) validate() error {
	if strings.TrimSpace(m.Extension) == "" {
		return fmt.Errorf("%w: extension identity must not be empty", ErrInvalidContribution)
	}
	for _, c := range m.CommandMountPoints() {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, d := range m.DirectoryMountPoints() {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

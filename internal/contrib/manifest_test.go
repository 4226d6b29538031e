// SPDX-License-Identifier: MPL-2.0

package contrib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest %s: %v", name, err)
	}
	return path
}

const cueManifest = `
extension: "docs-tools"
commands: [
	{mountPoint: "/usr/bin/mdcat", exec: {argv: ["mdcat", "--no-pager"]}},
	{mountPoint: "/usr/bin/greet", script: "echo hello $1"},
]
directories: [
	{path: "/srv/docs", mountPoint: "/data/docs"},
]
`

const tomlManifest = `
extension = "toml-tools"

[[commands]]
mountPoint = "/usr/bin/tcat"
script = "echo toml"

[[directories]]
path = "/srv/toml"
mountPoint = "/data/toml"
`

func TestParseManifestCUE(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, t.TempDir(), "tools.wesh.cue", cueManifest)
	m, err := ParseManifestFile(path)
	if err != nil {
		t.Fatalf("ParseManifestFile() error: %v", err)
	}

	if m.Extension != "docs-tools" {
		t.Errorf("Extension = %q, want %q", m.Extension, "docs-tools")
	}

	cmds := m.CommandMountPoints()
	if len(cmds) != 2 {
		t.Fatalf("CommandMountPoints() = %d entries, want 2", len(cmds))
	}
	if cmds[0].Name() != "mdcat" || cmds[0].Exec == nil || cmds[0].Exec.Argv[0] != "mdcat" {
		t.Errorf("first command = %+v", cmds[0])
	}
	if cmds[1].Name() != "greet" || cmds[1].Script == "" {
		t.Errorf("second command = %+v", cmds[1])
	}
	if cmds[1].Extension != "docs-tools" {
		t.Errorf("command extension = %q, want manifest extension", cmds[1].Extension)
	}

	dirs := m.DirectoryMountPoints()
	if len(dirs) != 1 || dirs[0].MountPoint != "/data/docs" || dirs[0].Path != "/srv/docs" {
		t.Errorf("DirectoryMountPoints() = %+v", dirs)
	}
}

func TestParseManifestTOML(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, t.TempDir(), "tools.wesh.toml", tomlManifest)
	m, err := ParseManifestFile(path)
	if err != nil {
		t.Fatalf("ParseManifestFile() error: %v", err)
	}
	if m.Extension != "toml-tools" {
		t.Errorf("Extension = %q, want %q", m.Extension, "toml-tools")
	}
	if cmds := m.CommandMountPoints(); len(cmds) != 1 || cmds[0].Name() != "tcat" {
		t.Errorf("CommandMountPoints() = %+v", cmds)
	}
}

func TestParseManifestRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		file      string
		content   string
		errSubstr string
	}{
		{
			name:      "schema violation relative mount point",
			file:      "bad.wesh.cue",
			content:   `extension: "x", commands: [{mountPoint: "mdcat", script: "echo"}]`,
			errSubstr: "mountPoint",
		},
		{
			name:      "missing extension",
			file:      "bad.wesh.toml",
			content:   "[[commands]]\nmountPoint = \"/usr/bin/a\"\nscript = \"echo\"\n",
			errSubstr: "extension",
		},
		{
			name:      "both exec and script",
			file:      "both.wesh.toml",
			content:   "extension = \"x\"\n[[commands]]\nmountPoint = \"/usr/bin/a\"\nscript = \"echo\"\nexec = {argv = [\"a\"]}\n",
			errSubstr: "exactly one",
		},
		{
			name:      "neither exec nor script",
			file:      "neither.wesh.toml",
			content:   "extension = \"x\"\n[[commands]]\nmountPoint = \"/usr/bin/a\"\n",
			errSubstr: "exactly one",
		},
		{
			name:      "unknown suffix",
			file:      "tools.yaml",
			content:   "extension: x",
			errSubstr: "not a manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeManifest(t, t.TempDir(), tt.file, tt.content)
			_, err := ParseManifestFile(path)
			if err == nil {
				t.Fatal("ParseManifestFile() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.errSubstr)
			}
		})
	}
}

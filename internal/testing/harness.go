// Package harness builds model directories for tests: an in-memory
// filesystem (or any afero.Fs) populated with model.config manifests and SDF
// documents.
package harness

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// Files maps absolute slash-separated paths to file contents.
type Files map[string]string

// Merge returns a copy of f overlaid with the given sets in order.
func (f Files) Merge(others ...Files) Files {
	out := maps.Clone(f)
	if out == nil {
		out = Files{}
	}
	for _, o := range others {
		maps.Copy(out, o)
	}
	return out
}

// Write creates every file of f in fsys, including parent directories.
func (f Files) Write(fsys afero.Fs) error {
	var paths []string
	for path := range f {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		native := filepath.FromSlash(path)
		if err := fsys.MkdirAll(filepath.Dir(native), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", path, err)
		}
		if err := afero.WriteFile(fsys, native, []byte(f[path]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// NewFS returns a memory filesystem holding the union of files.
func NewFS(files ...Files) (afero.Fs, error) {
	fsys := afero.NewMemMapFs()
	merged := Files{}.Merge(files...)
	if err := merged.Write(fsys); err != nil {
		return nil, err
	}
	return fsys, nil
}

// MustFS is NewFS for tests.
func MustFS(tb testing.TB, files ...Files) afero.Fs {
	tb.Helper()
	fsys, err := NewFS(files...)
	if err != nil {
		tb.Fatalf("build fixture filesystem: %v", err)
	}
	return fsys
}

// ConfigEntry is one sdf line of a model.config.
type ConfigEntry struct {
	Version string
	File    string
}

// Config renders a model.config. Entries with an empty Version omit the
// version attribute.
func Config(name string, entries ...ConfigEntry) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<model>\n")
	fmt.Fprintf(&b, "  <name>%s</name>\n", name)
	for _, e := range entries {
		if e.Version == "" {
			fmt.Fprintf(&b, "  <sdf>%s</sdf>\n", e.File)
			continue
		}
		fmt.Fprintf(&b, "  <sdf version=%q>%s</sdf>\n", e.Version, e.File)
	}
	b.WriteString("</model>\n")
	return b.String()
}

// Model returns the files of a model directory dir holding a single SDF
// file model.sdf at the given version.
func Model(dir, version, sdf string) Files {
	return Files{
		dir + "/model.config": Config(filepath.Base(dir), ConfigEntry{Version: version, File: "model.sdf"}),
		dir + "/model.sdf":     sdf,
	}
}

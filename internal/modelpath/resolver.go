// Package modelpath resolves model names to SDF files through an ordered
// search path and caches the resolved paths and parsed documents per
// (model name, version ceiling).
package modelpath

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/xmltree"
	"github.com/jacoelho/sdf/pkg/sdfversion"
)

// EnvModelPath names the environment variable holding extra model directories.
const EnvModelPath = "GAZEBO_MODEL_PATH"

// ConfigFile is the per-model manifest listing the model's SDF files.
const ConfigFile = "model.config"

// Entry is a cached resolution result. Doc is nil until the document has
// been loaded and stored.
type Entry struct {
	Doc      *etree.Document
	Includes map[string][]string
	Path     string
}

// ModelDir is one model directory found in the search path.
type ModelDir struct {
	Name string
	Dir  string
}

type cacheKey struct {
	name    string
	ceiling sdfversion.Ceiling
}

// Resolver maps model names to files. It is safe for concurrent use; the
// documents it caches must not be mutated by callers.
type Resolver struct {
	fs         afero.Fs
	logger     *slog.Logger
	entries    map[cacheKey]*Entry
	searchPath []string
	mu         sync.Mutex
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFS sets the filesystem models are read from.
func WithFS(fsys afero.Fs) Option {
	return func(r *Resolver) {
		if fsys != nil {
			r.fs = fsys
		}
	}
}

// WithSearchPath replaces the default search path.
func WithSearchPath(dirs []string) Option {
	return func(r *Resolver) {
		r.searchPath = slices.Clone(dirs)
	}
}

// WithLogger sets the logger used for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New returns a Resolver reading from the OS filesystem with
// DefaultSearchPath, unless overridden by opts.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		fs:      afero.NewOsFs(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		entries: make(map[cacheKey]*Entry),
	}
	r.searchPath = DefaultSearchPath()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultSearchPath returns the directories listed in GAZEBO_MODEL_PATH
// followed by ~/.gazebo/models.
func DefaultSearchPath() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv(EnvModelPath)) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".gazebo", "models"))
	}
	return dirs
}

// FS returns the filesystem the resolver reads from.
func (r *Resolver) FS() afero.Fs {
	return r.fs
}

// Logger returns the resolver's logger.
func (r *Resolver) Logger() *slog.Logger {
	return r.logger
}

// SearchPath returns a copy of the search path.
func (r *Resolver) SearchPath() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.searchPath)
}

// SetSearchPath replaces the search path and drops every cached entry.
func (r *Resolver) SetSearchPath(dirs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchPath = slices.Clone(dirs)
	clear(r.entries)
}

// Reset drops every cached entry.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// ModelFile reads dir/model.config and returns the SDF file with the highest
// version allowed by ceiling. Entries without a version count as version 0.
func (r *Resolver) ModelFile(dir string, ceiling sdfversion.Ceiling) (string, error) {
	configPath := filepath.Join(dir, ConfigFile)
	config, err := xmltree.ReadFile(r.fs, configPath)
	if err != nil {
		if code, ok := errors.CodeOf(err); ok {
			return "", errors.Wrap(code, err, "in %s", configPath)
		}
		return "", err
	}

	best, bestPath := -1, ""
	root := config.Root()
	if root.Tag == "model" {
		for _, sdf := range root.SelectElements("sdf") {
			version := 0
			if attr := sdf.SelectAttr("version"); attr != nil {
				version, err = sdfversion.Parse(attr.Value)
				if err != nil {
					return "", errors.Wrap(errors.ErrInvalidXML, err, "in %s", configPath)
				}
			}
			if !ceiling.Allows(version) || version <= best {
				continue
			}
			best, bestPath = version, filepath.Join(dir, xmltree.Text(sdf))
		}
	}
	if best < 0 {
		return "", errors.Newf(errors.ErrUnavailableSDFVersionInModel, "",
			"gazebo model in %s does not offer a SDF file matching version %s", dir, ceiling)
	}
	return bestPath, nil
}

// Resolve returns the SDF file of the named model, searching the search path
// in order. The result is cached per (name, ceiling).
func (r *Resolver) Resolve(name string, ceiling sdfversion.Ceiling) (string, error) {
	r.mu.Lock()
	key := cacheKey{name: name, ceiling: ceiling}
	if entry, ok := r.entries[key]; ok && entry.Path != "" {
		r.mu.Unlock()
		return entry.Path, nil
	}
	searchPath := slices.Clone(r.searchPath)
	r.mu.Unlock()

	for _, dir := range searchPath {
		modelDir := filepath.Join(dir, name)
		if !r.isFile(filepath.Join(modelDir, ConfigFile)) {
			continue
		}
		path, err := r.ModelFile(modelDir, ceiling)
		if err != nil {
			return "", err
		}
		r.logger.Debug("resolved model", "name", name, "version", ceiling.String(), "path", path)

		r.mu.Lock()
		if entry, ok := r.entries[key]; ok {
			entry.Path = path
		} else {
			r.entries[key] = &Entry{Path: path}
		}
		r.mu.Unlock()
		return path, nil
	}

	return "", &errors.Error{
		Code:    errors.ErrNoSuchModel,
		Message: fmt.Sprintf("cannot find model %s in path %s. You probably want to update the %s "+
			"environment variable, or set the model path explicitly",
			name, strings.Join(searchPath, string(filepath.ListSeparator)), EnvModelPath),
	}
}

// Lookup returns the cached document for (name, ceiling), if loaded.
func (r *Resolver) Lookup(name string, ceiling sdfversion.Ceiling) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[cacheKey{name: name, ceiling: ceiling}]
	if !ok || entry.Doc == nil {
		return Entry{}, false
	}
	return *entry, true
}

// Store caches a loaded document for (name, ceiling).
func (r *Resolver) Store(name string, ceiling sdfversion.Ceiling, entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := cacheKey{name: name, ceiling: ceiling}
	if existing, ok := r.entries[key]; ok && entry.Path == "" {
		entry.Path = existing.Path
	}
	r.entries[key] = &entry
}

// ModelDirs lists every directory of the search path holding a
// model.config. When a name appears in several directories the first one in
// search path order wins.
func (r *Resolver) ModelDirs() ([]ModelDir, error) {
	var out []ModelDir
	seen := make(map[string]bool)
	for _, dir := range r.SearchPath() {
		infos, err := afero.ReadDir(r.fs, dir)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("list models in %s: %w", dir, err)
		}
		for _, info := range infos {
			name := info.Name()
			if !info.IsDir() || seen[name] {
				continue
			}
			modelDir := filepath.Join(dir, name)
			if !r.isFile(filepath.Join(modelDir, ConfigFile)) {
				continue
			}
			seen[name] = true
			out = append(out, ModelDir{Name: name, Dir: modelDir})
		}
	}
	return out, nil
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && !info.IsDir()
}

package sdf

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/flatten"
	"github.com/jacoelho/sdf/internal/include"
	"github.com/jacoelho/sdf/internal/modelpath"
	"github.com/jacoelho/sdf/pkg/sdfversion"
)

const modelScheme = "model://"

// Loader loads SDF documents, resolving includes through a model search
// path. Loaded named models are cached per version ceiling until the search
// path changes or ClearCache is called. A Loader is safe for concurrent use.
type Loader struct {
	resolver *modelpath.Resolver
	expander *include.Expander
	logger   *slog.Logger
	mu       sync.Mutex
}

type loaderConfig struct {
	fs         afero.Fs
	logger     *slog.Logger
	searchPath []string
	pathSet    bool
}

// Option configures a Loader.
type Option func(*loaderConfig)

// WithFS sets the filesystem documents are read from (default: the OS).
func WithFS(fsys afero.Fs) Option {
	return func(c *loaderConfig) {
		c.fs = fsys
	}
}

// WithModelPath sets the model search path (default: DefaultModelPath).
func WithModelPath(dirs ...string) Option {
	return func(c *loaderConfig) {
		c.searchPath = dirs
		c.pathSet = true
	}
}

// WithLogger sets the logger receiving resolution debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *loaderConfig) {
		c.logger = logger
	}
}

// NewLoader returns a Loader with an empty cache.
func NewLoader(opts ...Option) *Loader {
	cfg := loaderConfig{logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	resolverOpts := []modelpath.Option{modelpath.WithLogger(cfg.logger)}
	if cfg.fs != nil {
		resolverOpts = append(resolverOpts, modelpath.WithFS(cfg.fs))
	}
	if cfg.pathSet {
		resolverOpts = append(resolverOpts, modelpath.WithSearchPath(cfg.searchPath))
	}
	resolver := modelpath.New(resolverOpts...)
	return &Loader{
		resolver: resolver,
		expander: include.New(resolver, include.WithLogger(cfg.logger)),
		logger:   cfg.logger,
	}
}

// ModelPath returns the model search path.
func (l *Loader) ModelPath() []string {
	return l.resolver.SearchPath()
}

// SetModelPath replaces the search path and clears the cache.
func (l *Loader) SetModelPath(dirs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolver.SetSearchPath(dirs)
}

// ClearCache drops every cached model.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolver.Reset()
}

// Load loads a document from a file path or a model://name URI.
func (l *Loader) Load(pathOrURI string, opts LoadOptions) (Root, error) {
	if name, ok := strings.CutPrefix(pathOrURI, modelScheme); ok {
		return l.LoadRootFromModelName(name, opts)
	}
	resolved, err := opts.withDefaults()
	if err != nil {
		return Root{}, err
	}

	l.mu.Lock()
	doc, md, err := l.expander.LoadFile(pathOrURI)
	l.mu.Unlock()
	if err != nil {
		return Root{}, err
	}
	l.logger.Debug("loaded document", "path", md.Path, "includes", len(md.Includes))
	return newLoadedRoot(doc, md, resolved.flatten)
}

// LoadRootFromModelName loads the document of the named model.
func (l *Loader) LoadRootFromModelName(name string, opts LoadOptions) (Root, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return Root{}, err
	}
	name = strings.TrimSuffix(name, "/")

	l.mu.Lock()
	doc, md, err := l.expander.ModelFromName(name, resolved.ceiling)
	l.mu.Unlock()
	if err != nil {
		return Root{}, err
	}
	return newLoadedRoot(doc, md, resolved.flatten)
}

// LoadModel loads the named model and returns its top-level model.
func (l *Loader) LoadModel(name string, opts LoadOptions) (*Model, error) {
	root, err := l.LoadRootFromModelName(name, opts)
	if err != nil {
		return nil, err
	}
	return root.firstModel()
}

// LoadedModel is one entry of Loader.Models.
type LoadedModel struct {
	Root Root
	Name string
}

// Models loads every model of the search path offering a file under the
// version ceiling, in search path order. Models lacking such a file are
// skipped.
func (l *Loader) Models(opts LoadOptions) ([]LoadedModel, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	models, err := l.expander.Models(resolved.ceiling)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]LoadedModel, 0, len(models))
	for _, m := range models {
		root, err := newLoadedRoot(m.Doc, m.Metadata, resolved.flatten)
		if err != nil {
			return nil, err
		}
		out = append(out, LoadedModel{Name: m.Name, Root: root})
	}
	return out, nil
}

// ModelDirs lists the model directories of the search path.
func (l *Loader) ModelDirs() ([]ModelDir, error) {
	return l.resolver.ModelDirs()
}

// ResolveModel returns the SDF file the named model offers under the version
// ceiling.
func (l *Loader) ResolveModel(name string, opts LoadOptions) (string, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return "", err
	}
	return l.resolver.Resolve(name, resolved.ceiling)
}

// IncludedModels returns the models of root spliced from uri, a model://
// URI or an SDF file path. model:// URIs resolve under root's version.
func (l *Loader) IncludedModels(root Root, uri string) ([]*Model, error) {
	path, err := l.includedPath(root, uri)
	if err != nil {
		return nil, err
	}
	return root.IncludedModels(path)
}

func (l *Loader) includedPath(root Root, uri string) (string, error) {
	name, ok := strings.CutPrefix(uri, modelScheme)
	if !ok {
		abs, err := filepath.Abs(uri)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", uri, err)
		}
		return abs, nil
	}
	opts := NewLoadOptions()
	if v, err := root.Version(); err == nil {
		opts = opts.WithCeiling(sdfversion.Max(v))
	}
	return l.ResolveModel(name, opts)
}

// LoadFile loads path with a fresh Loader using the default model path and
// options.
func LoadFile(path string) (Root, error) {
	return NewLoader().Load(path, NewLoadOptions())
}

func newLoadedRoot(doc *etree.Document, md Metadata, flat bool) (Root, error) {
	if flat {
		if err := flatten.Tree(doc.Root()); err != nil {
			return Root{}, errors.WithFile(err, md.Path)
		}
	}
	root, err := NewRoot(doc.Root())
	if err != nil {
		return Root{}, errors.WithFile(err, md.Path)
	}
	root.meta = &md
	return root, nil
}

func (r Root) firstModel() (*Model, error) {
	node := r.node.SelectElement("model")
	if node == nil {
		return nil, errors.Newf(errors.ErrInvalid, r.Path(), "%s has no model", r)
	}
	return NewModel(node, r)
}

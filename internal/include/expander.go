// Package include loads SDF documents and replaces their include blocks with
// the content of the referenced models, recording where each included
// document was spliced.
package include

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/loadguard"
	"github.com/jacoelho/sdf/internal/modelpath"
	"github.com/jacoelho/sdf/internal/xmltree"
	"github.com/jacoelho/sdf/pkg/sdfversion"
)

var (
	modelURI  = regexp.MustCompile(`^model://([^/]+)(?:/(.*))?$`)
	schemeURI = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// overridable lists the include children that replace the matching child of
// the included model.
var overridable = map[string]bool{"pose": true, "static": true}

// Expander loads documents with their includes expanded. Parsed model
// documents are cached in the resolver. An Expander is not safe for
// concurrent use.
type Expander struct {
	resolver *modelpath.Resolver
	logger   *slog.Logger
	guard    loadguard.Guard[string]
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger used for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Expander) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// New returns an Expander resolving model names through resolver.
func New(resolver *modelpath.Resolver, opts ...Option) *Expander {
	x := &Expander{resolver: resolver, logger: resolver.Logger()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Resolver returns the resolver backing x.
func (x *Expander) Resolver() *modelpath.Resolver {
	return x.resolver
}

// LoadFile parses path, expands its includes and makes every uri absolute.
// The returned document belongs to the caller. Errors are prefixed with path.
func (x *Expander) LoadFile(path string) (*etree.Document, Metadata, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	doc, md, err := x.loadFile(abs)
	if err != nil {
		return nil, Metadata{}, errors.WithFile(err, abs)
	}
	return doc, md, nil
}

func (x *Expander) loadFile(path string) (*etree.Document, Metadata, error) {
	leave, err := x.guard.Enter(path)
	if err != nil {
		var cycle *loadguard.CycleError[string]
		if stderrors.As(err, &cycle) {
			return nil, Metadata{}, errors.Wrap(errors.ErrInvalidXML, err, "include cycle")
		}
		return nil, Metadata{}, err
	}
	defer leave()

	doc, err := xmltree.ReadSDFFile(x.resolver.FS(), path)
	if err != nil {
		return nil, Metadata{}, err
	}
	root := doc.Root()
	ceiling, err := documentCeiling(root)
	if err != nil {
		return nil, Metadata{}, err
	}

	base := filepath.Dir(path)
	includes, err := x.expand(root, ceiling, base)
	if err != nil {
		return nil, Metadata{}, err
	}
	if err := x.rewriteURIs(root, ceiling, base); err != nil {
		return nil, Metadata{}, err
	}
	return doc, Metadata{Path: path, Includes: includes}, nil
}

// ModelFromName loads the named model found in the search path. The parsed
// document is cached per (name, ceiling); callers always get a copy.
func (x *Expander) ModelFromName(name string, ceiling sdfversion.Ceiling) (*etree.Document, Metadata, error) {
	if entry, ok := x.resolver.Lookup(name, ceiling); ok {
		x.logger.Debug("model cache hit", "name", name, "version", ceiling.String())
		return entry.Doc.Copy(), Metadata{Path: entry.Path, Includes: entry.Includes}.Clone(), nil
	}

	path, err := x.resolver.Resolve(name, ceiling)
	if err != nil {
		return nil, Metadata{}, err
	}
	doc, md, err := x.LoadFile(path)
	if err != nil {
		return nil, Metadata{}, err
	}
	x.resolver.Store(name, ceiling, modelpath.Entry{Path: md.Path, Doc: doc, Includes: md.Clone().Includes})
	return doc.Copy(), md, nil
}

// ModelFromDir loads the model held by dir, picking its SDF file through
// dir/model.config.
func (x *Expander) ModelFromDir(dir string, ceiling sdfversion.Ceiling) (*etree.Document, Metadata, error) {
	path, err := x.resolver.ModelFile(dir, ceiling)
	if err != nil {
		return nil, Metadata{}, err
	}
	return x.LoadFile(path)
}

// Model is one entry of a bulk scan.
type Model struct {
	Doc      *etree.Document
	Metadata Metadata
	Name     string
}

// Models loads every model of the search path offering a file under
// ceiling. Models without such a file are skipped; any other failure stops
// the scan.
func (x *Expander) Models(ceiling sdfversion.Ceiling) ([]Model, error) {
	dirs, err := x.resolver.ModelDirs()
	if err != nil {
		return nil, err
	}
	out := make([]Model, 0, len(dirs))
	for _, dir := range dirs {
		doc, md, err := x.ModelFromName(dir.Name, ceiling)
		if errors.Is(err, errors.ErrUnavailableSDFVersionInModel) {
			x.logger.Debug("skipping model", "name", dir.Name, "version", ceiling.String())
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Model{Name: dir.Name, Doc: doc, Metadata: md})
	}
	return out, nil
}

// expand replaces the include children of scope, recursing into nested
// world and model scopes, and returns the provenance it recorded. Names are
// relative to scope's parent, or to the document when scope is the root.
func (x *Expander) expand(scope *etree.Element, ceiling sdfversion.Ceiling, base string) (map[string][]string, error) {
	includes := make(map[string][]string)
	for _, child := range scope.ChildElements() {
		switch child.Tag {
		case "world", "model":
			nested, err := x.expand(child, ceiling, base)
			if err != nil {
				return nil, err
			}
			merge(includes, nested)
		case "include":
			spliced, err := x.splice(scope, child, ceiling, base)
			if err != nil {
				return nil, err
			}
			merge(includes, spliced)
		}
	}

	if !xmltree.IsSDFRoot(scope) {
		prefix(includes, xmltree.Name(scope))
	}
	return includes, nil
}

type includeSpec struct {
	node      *etree.Element
	uri       string
	name      string
	overrides []*etree.Element
}

func parseInclude(inc *etree.Element) (includeSpec, error) {
	spec := includeSpec{node: inc}
	uris := 0
	for _, c := range inc.ChildElements() {
		switch {
		case c.Tag == "uri":
			uris++
			spec.uri = xmltree.Text(c)
		case c.Tag == "name":
			spec.name = xmltree.Text(c)
		case overridable[c.Tag]:
			spec.overrides = append(spec.overrides, c)
		default:
			return spec, errors.Newf(errors.ErrInvalidXML, inc.GetPath(),
				"unexpected element '%s' found as child of an include", c.Tag)
		}
	}
	switch {
	case uris == 0:
		return spec, errors.New(errors.ErrInvalidXML, "no uri element in include", inc.GetPath())
	case uris > 1:
		return spec, errors.New(errors.ErrInvalidXML, "more than one uri element in include", inc.GetPath())
	}
	return spec, nil
}

func (x *Expander) splice(scope, inc *etree.Element, ceiling sdfversion.Ceiling, base string) (map[string][]string, error) {
	spec, err := parseInclude(inc)
	if err != nil {
		return nil, err
	}

	doc, md, err := x.resolveInclude(spec, ceiling, base)
	if err != nil {
		return nil, err
	}

	top := doc.Root().ChildElements()
	if len(top) != 1 || top[0].Tag != "model" {
		return nil, errors.Newf(errors.ErrInvalidXML, inc.GetPath(),
			"expected included resource %s to have exactly one model", spec.uri)
	}
	model := top[0]
	original := xmltree.Name(model)
	if spec.name != "" {
		model.CreateAttr("name", spec.name)
	}
	at := xmltree.Name(model)
	for _, o := range spec.overrides {
		xmltree.ReplaceOrAppend(model, o.Copy())
	}

	if err := xmltree.Splice(scope, inc, []*etree.Element{model}); err != nil {
		return nil, err
	}
	x.logger.Debug("spliced include", "uri", spec.uri, "name", at, "path", md.Path)

	includes := reroot(md.Includes, original, at)
	includes[md.Path] = append(includes[md.Path], at)
	return includes, nil
}

func (x *Expander) resolveInclude(spec includeSpec, ceiling sdfversion.Ceiling, base string) (*etree.Document, Metadata, error) {
	if m := modelURI.FindStringSubmatch(spec.uri); m != nil {
		if m[2] != "" {
			return nil, Metadata{}, errors.Newf(errors.ErrInvalidXML, spec.node.GetPath(),
				"does not know how to resolve an explicit file in a model:// URI inside an include (%s)", spec.uri)
		}
		return x.ModelFromName(m[1], ceiling)
	}

	dir := spec.uri
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	if info, err := x.resolver.FS().Stat(dir); err == nil && info.IsDir() {
		return x.ModelFromDir(filepath.Clean(dir), ceiling)
	}
	return nil, Metadata{}, errors.Newf(errors.ErrNoSuchModel, spec.node.GetPath(),
		"URI %s is neither a model:// URI nor an existing directory", spec.uri)
}

// rewriteURIs makes every uri below root absolute. Include blocks are left
// alone.
func (x *Expander) rewriteURIs(root *etree.Element, ceiling sdfversion.Ceiling, base string) error {
	queue := []*etree.Element{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Tag == "include" {
			continue
		}
		if n.Tag == "uri" {
			if err := x.rewriteURI(n, ceiling, base); err != nil {
				return err
			}
		}
		queue = append(queue, n.ChildElements()...)
	}
	return nil
}

func (x *Expander) rewriteURI(n *etree.Element, ceiling sdfversion.Ceiling, base string) error {
	text := xmltree.Text(n)
	switch {
	case text == "":
		return nil
	case modelURI.MatchString(text):
		m := modelURI.FindStringSubmatch(text)
		path, err := x.resolver.Resolve(m[1], ceiling)
		if err != nil {
			return err
		}
		dir := filepath.Dir(path)
		if m[2] != "" {
			n.SetText(filepath.Join(dir, filepath.FromSlash(m[2])))
		} else {
			n.SetText(dir)
		}
	case schemeURI.MatchString(text), filepath.IsAbs(text), strings.HasPrefix(text, "/"):
		// already absolute
	default:
		n.SetText(filepath.Join(base, filepath.FromSlash(text)))
	}
	return nil
}

func documentCeiling(root *etree.Element) (sdfversion.Ceiling, error) {
	attr := root.SelectAttr("version")
	if attr == nil {
		return sdfversion.Latest(), nil
	}
	c, err := sdfversion.ParseCeiling(attr.Value)
	if err != nil {
		return sdfversion.Ceiling{}, errors.Wrap(errors.ErrInvalid, err, "invalid version attribute")
	}
	return c, nil
}

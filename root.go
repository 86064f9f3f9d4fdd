package sdf

import (
	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/xmltree"
	"github.com/jacoelho/sdf/pkg/sdfversion"
)

// Root is the top of an SDF document. Roots returned by a Loader also carry
// the provenance of their content.
type Root struct {
	Element
	meta *Metadata
}

// NewRoot wraps an sdf (or legacy gazebo) node.
func NewRoot(node *etree.Element) (Root, error) {
	if node != nil && !xmltree.IsSDFRoot(node) {
		return Root{}, errors.Newf(errors.ErrNotSDF, node.GetPath(),
			"expected the root element to be one of %v, got '%s'", xmltree.RootTags, node.Tag)
	}
	el, err := newElement(KindRoot, node, nil, xmltree.RootTags...)
	if err != nil {
		return Root{}, err
	}
	return Root{Element: el}, nil
}

// ParseRoot parses an SDF document from a string.
func ParseRoot(s string) (Root, error) {
	doc, err := xmltree.ReadString(s)
	if err != nil {
		return Root{}, err
	}
	if err := xmltree.CheckSDFRoot(doc); err != nil {
		return Root{}, err
	}
	return NewRoot(doc.Root())
}

// Version returns the document version as MAJOR*100+MINOR.
func (r Root) Version() (int, error) {
	attr := r.node.SelectAttr("version")
	if attr == nil {
		return 0, errors.Newf(errors.ErrInvalid, r.Path(), "%s has no version attribute", r)
	}
	v, err := sdfversion.Parse(attr.Value)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInvalid, err, "invalid version of %s", r)
	}
	return v, nil
}

// Worlds returns the top-level worlds.
func (r Root) Worlds() []World {
	nodes := r.node.SelectElements("world")
	out := make([]World, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, World{Element: Element{node: n, parent: r, kind: KindWorld}})
	}
	return out
}

// Models returns the top-level models. With recursive set it also returns
// the models of every world and every nested model, depth-first.
func (r Root) Models(recursive bool) ([]*Model, error) {
	top, err := modelsOf(r)
	if err != nil || !recursive {
		return top, err
	}

	var out []*Model
	for _, w := range r.Worlds() {
		models, err := w.Models()
		if err != nil {
			return nil, err
		}
		out = appendNested(out, models)
	}
	return appendNested(out, top), nil
}

func appendNested(out, models []*Model) []*Model {
	for _, m := range models {
		out = append(out, m)
		for _, sub := range m.AllModels() {
			out = append(out, sub.Entity)
		}
	}
	return out
}

// FindByName resolves a "::"-qualified name relative to the document.
func (r Root) FindByName(name string) (Entity, error) {
	return findChildByName(r, name)
}

// Metadata returns the provenance recorded when r was loaded. ok is false
// for roots not built by a Loader.
func (r Root) Metadata() (Metadata, bool) {
	if r.meta == nil {
		return Metadata{}, false
	}
	return r.meta.Clone(), true
}

// FindFileOf returns the file that contributed e, which must belong to r.
// ok is false when r has no provenance.
func (r Root) FindFileOf(e Entity) (string, bool) {
	if r.meta == nil {
		return "", false
	}
	if e.Kind() == KindRoot {
		return r.meta.Path, r.meta.Path != ""
	}
	return r.meta.FileOf(e.element().FullNameFrom(r))
}

// IncludedModels returns the models spliced from the document at path, in
// include order.
func (r Root) IncludedModels(path string) ([]*Model, error) {
	if r.meta == nil {
		return nil, nil
	}
	names := r.meta.SplicedAt(path)
	out := make([]*Model, 0, len(names))
	for _, name := range names {
		e, err := r.FindByName(name)
		if err != nil {
			return nil, err
		}
		m, ok := e.(*Model)
		if !ok {
			return nil, errors.Newf(errors.ErrInvalid, e.XML().GetPath(),
				"expected %s to be a model, got %s", name, e.Kind())
		}
		out = append(out, m)
	}
	return out, nil
}

// IncludedFiles returns every document spliced into r, sorted.
func (r Root) IncludedFiles() []string {
	if r.meta == nil {
		return nil
	}
	return r.meta.Paths()
}

// Package xmltree holds the element-tree helpers shared by the SDF loading
// passes: document parsing through an afero filesystem, child lookup,
// in-place splicing and serialization.
package xmltree

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/jacoelho/sdf/errors"
)

// RootTags lists the document root tags accepted as SDF.
var RootTags = []string{"sdf", "gazebo"}

// ReadFile parses the XML document at path. The file is closed before
// returning.
func ReadFile(fsys afero.Fs, path string) (doc *etree.Document, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return Read(f)
}

// Read parses an XML document from r. Malformed input and documents without
// a root element are ErrInvalidXML.
func Read(r io.Reader) (*etree.Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidXML, err, "malformed XML")
	}
	if doc.Root() == nil {
		return nil, errors.New(errors.ErrInvalidXML, "document has no root element", "")
	}
	return doc, nil
}

// ReadString parses an XML document held in s.
func ReadString(s string) (*etree.Document, error) {
	return Read(strings.NewReader(s))
}

// ReadSDFFile parses path and checks that its root is an SDF root tag.
func ReadSDFFile(fsys afero.Fs, path string) (*etree.Document, error) {
	doc, err := ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	if err := CheckSDFRoot(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CheckSDFRoot returns ErrNotSDF unless doc's root is sdf or gazebo.
func CheckSDFRoot(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return errors.New(errors.ErrNotSDF, "document has no root element", "")
	}
	for _, tag := range RootTags {
		if root.Tag == tag {
			return nil
		}
	}
	return errors.Newf(errors.ErrNotSDF, root.GetPath(),
		"expected root element to be one of %s, got %q", strings.Join(RootTags, ", "), root.Tag)
}

// IsSDFRoot reports whether e is an sdf or gazebo element.
func IsSDFRoot(e *etree.Element) bool {
	if e == nil {
		return false
	}
	for _, tag := range RootTags {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

// Path returns the structural path of e, or "" for nil.
func Path(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.GetPath()
}

// Name returns the name attribute of e.
func Name(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.SelectAttrValue("name", "")
}

// Text returns the trimmed text of e, or "" for nil.
func Text(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text())
}

// Children returns the direct child elements of e with the given tag.
func Children(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElements(tag)
}

// Child returns the first direct child of e with the given tag.
func Child(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElement(tag)
}

// SingleChild returns the only child of e with the given tag. It fails with
// ErrInvalid when there are several, or when there is none and required is set.
func SingleChild(e *etree.Element, tag string, required bool) (*etree.Element, error) {
	children := Children(e, tag)
	switch {
	case len(children) > 1:
		return nil, errors.Newf(errors.ErrInvalid, Path(e), "more than one %s child", tag)
	case len(children) == 0 && required:
		return nil, errors.Newf(errors.ErrInvalid, Path(e), "no %s child", tag)
	case len(children) == 0:
		return nil, nil
	}
	return children[0], nil
}

// ChildByName returns the direct children of e with the given tag and name
// attribute.
func ChildByName(e *etree.Element, tag, name string) []*etree.Element {
	var out []*etree.Element
	for _, c := range Children(e, tag) {
		if Name(c) == name {
			out = append(out, c)
		}
	}
	return out
}

// Splice replaces old, a child of parent, with repl in place. Elements in
// repl are detached from their current parent first.
func Splice(parent, old *etree.Element, repl []*etree.Element) error {
	if old.Parent() != parent {
		return fmt.Errorf("splice %s: not a child of %s", old.Tag, Path(parent))
	}
	index := old.Index()
	parent.RemoveChildAt(index)
	for i, e := range repl {
		if p := e.Parent(); p != nil {
			p.RemoveChild(e)
		}
		parent.InsertChildAt(index+i, e)
	}
	return nil
}

// ReplaceOrAppend removes every child of parent with the same tag as child
// and puts child where the first of them was, or appends child when there is
// none.
func ReplaceOrAppend(parent, child *etree.Element) {
	existing := parent.SelectElement(child.Tag)
	if existing == nil {
		parent.AddChild(child)
		return
	}
	index := existing.Index()
	RemoveChildren(parent, child.Tag)
	parent.InsertChildAt(index, child)
}

// RemoveChildren detaches every direct child of e with the given tag and
// returns them in document order.
func RemoveChildren(e *etree.Element, tag string) []*etree.Element {
	children := Children(e, tag)
	for _, c := range children {
		e.RemoveChild(c)
	}
	return children
}

// String serializes e without indentation.
func String(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var buf bytes.Buffer
	e.WriteTo(&buf, &etree.WriteSettings{})
	return buf.String()
}

// Indented serializes doc with two-space indentation.
func Indented(doc *etree.Document) (string, error) {
	out := doc.Copy()
	out.Indent(2)
	return out.WriteToString()
}

// NewDocument builds a document whose root element has the given tag and
// version (omitted when empty) and adopts children.
func NewDocument(rootTag, version string, children ...*etree.Element) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(rootTag)
	if version != "" {
		root.CreateAttr("version", version)
	}
	for _, c := range children {
		root.AddChild(c)
	}
	return doc
}

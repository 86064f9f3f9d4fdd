// Package sdf loads SDF scene descriptions and exposes them as typed
// entities (worlds, models, links, joints, ...) over the underlying element
// tree.
//
// Loading resolves include blocks through a model search path, makes every
// uri absolute and, by default, flattens nested models into their parent.
package sdf

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/flatten"
	"github.com/jacoelho/sdf/internal/include"
	"github.com/jacoelho/sdf/internal/xmltree"
)

// Separator joins the names of nested entities into a qualified name.
const Separator = include.Separator

// ErrNotFound reports a qualified name that matches no entity.
var ErrNotFound = stderrors.New("sdf: entity not found")

// Kind identifies the type of an entity.
type Kind int

const (
	KindRoot Kind = iota + 1
	KindWorld
	KindModel
	KindLink
	KindJoint
	KindAxis
	KindAxisLimit
	KindSensor
	KindFrame
	KindPlugin
	KindPhysics
	KindSphericalCoordinates
)

var kindNames = map[Kind]string{
	KindRoot:                 "Root",
	KindWorld:                "World",
	KindModel:                "Model",
	KindLink:                 "Link",
	KindJoint:                "Joint",
	KindAxis:                 "Axis",
	KindAxisLimit:            "AxisLimit",
	KindSensor:               "Sensor",
	KindFrame:                "Frame",
	KindPlugin:               "Plugin",
	KindPhysics:              "Physics",
	KindSphericalCoordinates: "SphericalCoordinates",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// kindOfTag maps element tags to the kind wrapping them.
var kindOfTag = map[string]Kind{
	"sdf":                   KindRoot,
	"gazebo":                KindRoot,
	"world":                 KindWorld,
	"model":                 KindModel,
	"link":                  KindLink,
	"joint":                 KindJoint,
	"axis":                  KindAxis,
	"axis2":                 KindAxis,
	"limit":                 KindAxisLimit,
	"sensor":                KindSensor,
	"frame":                 KindFrame,
	"plugin":                KindPlugin,
	"physics":               KindPhysics,
	"spherical_coordinates": KindSphericalCoordinates,
}

// Entity is implemented by every typed SDF element.
type Entity interface {
	Kind() Kind
	XML() *etree.Element
	Parent() Entity
	Name() string
	element() Element
}

// Key identifies an entity by kind and node. Two wrappers of the same node
// have the same Key.
type Key struct {
	Node *etree.Element
	Kind Kind
}

// Element holds what every entity shares: its node and its logical parent.
// The parent does not own the entity; nodes are owned by their document.
type Element struct {
	node   *etree.Element
	parent Entity
	kind   Kind
}

func newElement(kind Kind, node *etree.Element, parent Entity, tags ...string) (Element, error) {
	if node == nil {
		return Element{}, errors.Newf(errors.ErrInvalid, "", "cannot build a %s from a nil element", kind)
	}
	for _, tag := range tags {
		if node.Tag == tag {
			return Element{node: node, parent: parent, kind: kind}, nil
		}
	}
	return Element{}, errors.Newf(errors.ErrInvalid, node.GetPath(),
		"expected the XML element to be a '%s' tag, but got '%s'", strings.Join(tags, "' or '"), node.Tag)
}

func (e Element) element() Element { return e }

// Kind returns the entity kind.
func (e Element) Kind() Kind { return e.kind }

// XML returns the underlying node.
func (e Element) XML() *etree.Element { return e.node }

// Parent returns the logical parent, nil for a root.
func (e Element) Parent() Entity { return e.parent }

// Name returns the name attribute.
func (e Element) Name() string { return xmltree.Name(e.node) }

// SetName changes the name attribute of the node.
func (e Element) SetName(name string) { e.node.CreateAttr("name", name) }

// Path returns the structural path of the node in its document.
func (e Element) Path() string { return xmltree.Path(e.node) }

// Key returns the hashable identity of the entity.
func (e Element) Key() Key { return Key{Node: e.node, Kind: e.kind} }

// Root returns the outermost ancestor of the entity.
func (e Element) Root() Entity {
	var top Entity
	for p := e.parent; p != nil; p = p.Parent() {
		top = p
	}
	return top
}

// FullName returns the "::"-joined names of the entity and its named
// ancestors.
func (e Element) FullName() string {
	return e.FullNameFrom(nil)
}

// FullNameFrom is FullName stopping at root, which is excluded.
func (e Element) FullNameFrom(root Entity) string {
	name := e.Name()
	for p := e.parent; p != nil; p = p.Parent() {
		if root != nil && p.element().Key() == root.element().Key() {
			break
		}
		if pn := p.Name(); pn != "" {
			name = pn + Separator + name
		}
	}
	return name
}

// String returns the entity and its ancestors as Kind[name] segments.
func (e Element) String() string {
	s := fmt.Sprintf("%s[%s]", e.kind, e.Name())
	if e.parent == nil {
		return s
	}
	return fmt.Sprint(e.parent) + "/" + s
}

// XMLString serializes the node.
func (e Element) XMLString() string {
	return xmltree.String(e.node)
}

// ChildByName returns the only child with the given tag. A missing optional
// child yields a detached empty element so defaults apply.
func (e Element) ChildByName(tag string, required bool) (*etree.Element, error) {
	child, err := xmltree.SingleChild(e.node, tag, required)
	if err != nil {
		return nil, e.childError(err)
	}
	if child == nil {
		return etree.NewElement(tag), nil
	}
	return child, nil
}

// optionalChild returns the only child with the given tag, or nil.
func (e Element) optionalChild(tag string) (*etree.Element, error) {
	child, err := xmltree.SingleChild(e.node, tag, false)
	if err != nil {
		return nil, e.childError(err)
	}
	return child, nil
}

func (e Element) childError(err error) error {
	var coded *errors.Error
	if !stderrors.As(err, &coded) {
		return err
	}
	return errors.Newf(coded.Code, e.Path(), "%s: %s", e, coded.Message)
}

// MakeRoot builds a standalone document holding a copy of the entity's
// subtree, flattened when requested. The copy carries the version of the
// entity's root, if any.
func (e Element) MakeRoot(flat bool) (Root, error) {
	node := e.node.Copy()
	if flat {
		if err := flatten.Tree(node); err != nil {
			return Root{}, err
		}
	}
	if e.kind == KindRoot {
		return NewRoot(etree.NewDocumentWithRoot(node).Root())
	}
	version := ""
	if top := e.Root(); top != nil && top.Kind() == KindRoot {
		version = top.XML().SelectAttrValue("version", "")
	}
	return NewRoot(xmltree.NewDocument("sdf", version, node).Root())
}

// Equal reports whether a and b wrap the same node with the same kind, or
// serialize identically.
func Equal(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a.XML() == b.XML() || xmltree.String(a.XML()) == xmltree.String(b.XML())
}

// Wrap builds the entity matching node's tag. Unknown tags are ErrInvalid.
func Wrap(node *etree.Element, parent Entity) (Entity, error) {
	if node == nil {
		return nil, errors.New(errors.ErrInvalid, "cannot wrap a nil element", "")
	}
	kind, ok := kindOfTag[node.Tag]
	if !ok {
		return nil, errors.Newf(errors.ErrInvalid, node.GetPath(),
			"don't know how to wrap the %s XML element", node.Tag)
	}
	switch kind {
	case KindRoot:
		return NewRoot(node)
	case KindWorld:
		return NewWorld(node, parent)
	case KindModel:
		return NewModel(node, parent)
	case KindLink:
		return NewLink(node, parent)
	case KindJoint:
		return NewJoint(node, parent)
	case KindAxis:
		return NewAxis(node, parent)
	case KindAxisLimit:
		return NewAxisLimit(node, parent)
	case KindSensor:
		return NewSensor(node, parent)
	case KindFrame:
		return NewFrame(node, parent)
	case KindPlugin:
		return NewPlugin(node, parent)
	case KindPhysics:
		return NewPhysics(node, parent)
	case KindSphericalCoordinates:
		return NewSphericalCoordinates(node, parent)
	}
	return nil, errors.Newf(errors.ErrInvalid, node.GetPath(), "no constructor for %s", kind)
}

// wrappable reports whether Wrap accepts node's tag.
func wrappable(node *etree.Element) bool {
	_, ok := kindOfTag[node.Tag]
	return ok
}

// findChildByName resolves a qualified name against the direct children of
// scope, descending one "::" level at a time.
func findChildByName(scope Entity, name string) (Entity, error) {
	for _, child := range scope.XML().ChildElements() {
		childName := xmltree.Name(child)
		if childName == "" || !wrappable(child) {
			continue
		}
		if name == childName {
			return Wrap(child, scope)
		}
		suffix, ok := strings.CutPrefix(name, childName+Separator)
		if !ok {
			continue
		}
		wrapped, err := Wrap(child, scope)
		if err != nil {
			return nil, err
		}
		found, err := findByName(wrapped, suffix)
		if stderrors.Is(err, ErrNotFound) {
			continue
		}
		return found, err
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, scope)
}

func findByName(scope Entity, name string) (Entity, error) {
	if m, ok := scope.(*Model); ok {
		if found, ok := m.FindByName(name); ok {
			return found, nil
		}
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, scope)
	}
	return findChildByName(scope, name)
}

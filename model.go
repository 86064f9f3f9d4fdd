package sdf

import (
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/pose"
)

// Named pairs an entity with its name qualified relative to a model.
type Named[T any] struct {
	Entity T
	Name   string
}

// scope is an insertion-ordered map of qualified names.
type scope[T any] struct {
	byName map[string]T
	order  []string
}

func (s *scope[T]) add(name string, v T, kind, owner string) error {
	if s.byName == nil {
		s.byName = make(map[string]T)
	}
	if _, dup := s.byName[name]; dup {
		return errors.Newf(errors.ErrInvalid, "", "duplicate %s '%s' in %s", kind, name, owner)
	}
	s.byName[name] = v
	s.order = append(s.order, name)
	return nil
}

func (s *scope[T]) get(name string) (T, bool) {
	v, ok := s.byName[name]
	return v, ok
}

func (s *scope[T]) list() []Named[T] {
	out := make([]Named[T], 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Named[T]{Name: name, Entity: s.byName[name]})
	}
	return out
}

// Model is a named assembly of links, joints, frames, plugins and nested
// models. Its qualified-name maps are resolved once, by NewModel.
type Model struct {
	Element
	canonical *etree.Element

	directLinks  []Link
	directJoints []Joint
	directModels []*Model

	links   scope[Link]
	joints  scope[Joint]
	frames  scope[Frame]
	plugins scope[Plugin]
	models  scope[*Model]
}

// NewModel wraps a model node. Nested models are built recursively and
// every joint is resolved against the links visible from its model.
func NewModel(node *etree.Element, parent Entity) (*Model, error) {
	el, err := newElement(KindModel, node, parent, "model")
	if err != nil {
		return nil, err
	}
	m := &Model{Element: el}
	m.canonical = m.designatedCanonical()

	var jointNodes []*etree.Element
	for _, child := range node.ChildElements() {
		switch child.Tag {
		case "link":
			link := Link{Element: Element{node: child, parent: m, kind: KindLink}}
			m.directLinks = append(m.directLinks, link)
			if err := m.links.add(link.Name(), link, "link", m.String()); err != nil {
				return nil, err
			}
		case "joint":
			jointNodes = append(jointNodes, child)
		case "frame":
			frame := Frame{Element: Element{node: child, parent: m, kind: KindFrame}}
			if err := m.frames.add(frame.Name(), frame, "frame", m.String()); err != nil {
				return nil, err
			}
		case "plugin":
			plugin := Plugin{Element: Element{node: child, parent: m, kind: KindPlugin}}
			if err := m.plugins.add(plugin.Name(), plugin, "plugin", m.String()); err != nil {
				return nil, err
			}
		}
	}

	for _, child := range node.SelectElements("model") {
		sub, err := NewModel(child, m)
		if err != nil {
			return nil, err
		}
		m.directModels = append(m.directModels, sub)
		if err := m.merge(sub); err != nil {
			return nil, err
		}
	}

	for _, child := range jointNodes {
		joint, err := NewJoint(child, m)
		if err != nil {
			return nil, err
		}
		m.directJoints = append(m.directJoints, joint)
		if err := m.joints.add(joint.Name(), joint, "joint", m.String()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// designatedCanonical picks the canonical link node: the one of the nearest
// ancestor model, else the first direct link, else the first link found
// depth-first in nested models.
func (m *Model) designatedCanonical() *etree.Element {
	for p := m.parent; p != nil; p = p.Parent() {
		if pm, ok := p.(*Model); ok {
			if pm.canonical != nil {
				return pm.canonical
			}
			break
		}
	}
	return firstLink(m.node)
}

func firstLink(node *etree.Element) *etree.Element {
	if link := node.SelectElement("link"); link != nil {
		return link
	}
	for _, sub := range node.SelectElements("model") {
		if link := firstLink(sub); link != nil {
			return link
		}
	}
	return nil
}

func (m *Model) merge(sub *Model) error {
	p := sub.Name() + Separator
	owner := m.String()
	if err := m.models.add(sub.Name(), sub, "model", owner); err != nil {
		return err
	}
	for _, e := range sub.models.list() {
		if err := m.models.add(p+e.Name, e.Entity, "model", owner); err != nil {
			return err
		}
	}
	for _, e := range sub.links.list() {
		if err := m.links.add(p+e.Name, e.Entity, "link", owner); err != nil {
			return err
		}
	}
	for _, e := range sub.joints.list() {
		if err := m.joints.add(p+e.Name, e.Entity, "joint", owner); err != nil {
			return err
		}
	}
	for _, e := range sub.frames.list() {
		if err := m.frames.add(p+e.Name, e.Entity, "frame", owner); err != nil {
			return err
		}
	}
	for _, e := range sub.plugins.list() {
		if err := m.plugins.add(p+e.Name, e.Entity, "plugin", owner); err != nil {
			return err
		}
	}
	return nil
}

// resolveLink maps a joint's parent or child text to a link.
func (m *Model) resolveLink(name, joint, role string) (Link, error) {
	if name == WorldLinkName {
		return WorldLink(), nil
	}
	if link, ok := m.links.get(name); ok {
		return link, nil
	}
	var known []string
	for name := range m.links.byName {
		known = append(known, name)
	}
	slices.Sort(known)
	return Link{}, errors.Newf(errors.ErrInvalid, m.Path(),
		"cannot resolve %s link '%s' of joint '%s' in %s, known links: %s",
		role, name, joint, m, strings.Join(known, ", "))
}

// FindLinkByName returns the link with the given name, qualified relative to m.
func (m *Model) FindLinkByName(name string) (Link, bool) { return m.links.get(name) }

// FindJointByName returns the joint with the given qualified name.
func (m *Model) FindJointByName(name string) (Joint, bool) { return m.joints.get(name) }

// FindFrameByName returns the frame with the given qualified name.
func (m *Model) FindFrameByName(name string) (Frame, bool) { return m.frames.get(name) }

// FindPluginByName returns the plugin with the given qualified name.
func (m *Model) FindPluginByName(name string) (Plugin, bool) { return m.plugins.get(name) }

// FindModelByName returns the nested model with the given qualified name.
func (m *Model) FindModelByName(name string) (*Model, bool) { return m.models.get(name) }

// FindByName looks name up among links, joints, frames, plugins and nested
// models, in that order.
func (m *Model) FindByName(name string) (Entity, bool) {
	if v, ok := m.links.get(name); ok {
		return v, true
	}
	if v, ok := m.joints.get(name); ok {
		return v, true
	}
	if v, ok := m.frames.get(name); ok {
		return v, true
	}
	if v, ok := m.plugins.get(name); ok {
		return v, true
	}
	if v, ok := m.models.get(name); ok {
		return v, true
	}
	return nil, false
}

// Links returns every link of m and its nested models.
func (m *Model) Links() []Named[Link] { return m.links.list() }

// DirectLinks returns the links declared directly in m.
func (m *Model) DirectLinks() []Link { return slices.Clone(m.directLinks) }

// Joints returns every joint of m and its nested models.
func (m *Model) Joints() []Named[Joint] { return m.joints.list() }

// DirectJoints returns the joints declared directly in m.
func (m *Model) DirectJoints() []Joint { return slices.Clone(m.directJoints) }

// Frames returns every frame of m and its nested models.
func (m *Model) Frames() []Named[Frame] { return m.frames.list() }

// Plugins returns every plugin of m and its nested models.
func (m *Model) Plugins() []Named[Plugin] { return m.plugins.list() }

// Models returns the models nested directly in m.
func (m *Model) Models() []*Model { return slices.Clone(m.directModels) }

// AllModels returns every model nested in m, at any depth, depth-first.
func (m *Model) AllModels() []Named[*Model] { return m.models.list() }

// Sensors returns the sensors of every link of m and its nested models.
func (m *Model) Sensors() ([]Sensor, error) {
	var out []Sensor
	for _, l := range m.links.list() {
		sensors, err := l.Entity.Sensors()
		if err != nil {
			return nil, err
		}
		out = append(out, sensors...)
	}
	return out, nil
}

// DirectSensors returns the sensors of the links declared directly in m.
func (m *Model) DirectSensors() ([]Sensor, error) {
	var out []Sensor
	for _, l := range m.directLinks {
		sensors, err := l.Sensors()
		if err != nil {
			return nil, err
		}
		out = append(out, sensors...)
	}
	return out, nil
}

// CanonicalLink returns the link representing the model's own pose. ok is
// false when neither m nor its ancestors have any link.
func (m *Model) CanonicalLink() (Link, bool) {
	if m.canonical == nil {
		return Link{}, false
	}
	var e Entity = m
	for e != nil {
		if owner, ok := e.(*Model); ok {
			for _, l := range owner.links.list() {
				if l.Entity.node == m.canonical {
					return l.Entity, true
				}
			}
		}
		e = e.Parent()
	}
	return Link{}, false
}

// Static reports the value of the static child, false when absent.
func (m *Model) Static() (bool, error) {
	child, err := m.optionalChild("static")
	if err != nil || child == nil {
		return false, err
	}
	return pose.Bool(child)
}

// Pose returns the model pose relative to its parent.
func (m *Model) Pose() (Transform, error) {
	return m.decodePose()
}

func (e Element) decodePose() (Transform, error) {
	child, err := e.optionalChild("pose")
	if err != nil {
		return Transform{}, err
	}
	return pose.Decode(child)
}

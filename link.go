package sdf

import (
	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jacoelho/sdf/internal/flatten"
	"github.com/jacoelho/sdf/internal/pose"
)

// Transform is a rigid transform: a translation and a unit quaternion.
type Transform = pose.Transform

// WorldLinkName is the link name joints use to attach to the world.
const WorldLinkName = flatten.WorldLink

var worldLink = Link{Element: Element{
	node: etree.NewElement("link"),
	kind: KindLink,
}}

func init() {
	worldLink.node.CreateAttr("name", WorldLinkName)
}

// WorldLink returns the shared link every "world" joint end resolves to.
func WorldLink() Link { return worldLink }

// Link is a rigid body of a model.
type Link struct {
	Element
}

// Inertial holds the mass properties of a link.
type Inertial struct {
	Pose    Transform
	Inertia mgl64.Mat3
	Mass    float64
}

// NewLink wraps a link node.
func NewLink(node *etree.Element, parent Entity) (Link, error) {
	el, err := newElement(KindLink, node, parent, "link")
	if err != nil {
		return Link{}, err
	}
	return Link{Element: el}, nil
}

// IsWorld reports whether l is the world sentinel.
func (l Link) IsWorld() bool { return l.node == worldLink.node }

// Pose returns the link pose relative to its model.
func (l Link) Pose() (Transform, error) {
	return l.decodePose()
}

// Inertial returns the link's mass properties. Missing values default to a
// unit mass with identity inertia at the link origin.
func (l Link) Inertial() (Inertial, error) {
	out := Inertial{Mass: 1, Pose: pose.Identity(), Inertia: mgl64.Ident3()}
	node, err := l.optionalChild("inertial")
	if err != nil || node == nil {
		return out, err
	}
	if mass := node.SelectElement("mass"); mass != nil {
		if out.Mass, err = pose.Float(mass); err != nil {
			return Inertial{}, err
		}
	}
	if out.Pose, err = pose.Decode(node.SelectElement("pose")); err != nil {
		return Inertial{}, err
	}
	inertia := node.SelectElement("inertia")
	if inertia == nil {
		return out, nil
	}
	// symmetric
	cells := []struct {
		tag      string
		row, col int
	}{
		{"ixx", 0, 0}, {"ixy", 0, 1}, {"ixz", 0, 2},
		{"iyy", 1, 1}, {"iyz", 1, 2}, {"izz", 2, 2},
	}
	for _, c := range cells {
		el := inertia.SelectElement(c.tag)
		if el == nil {
			continue
		}
		v, err := pose.Float(el)
		if err != nil {
			return Inertial{}, err
		}
		out.Inertia.Set(c.row, c.col, v)
		out.Inertia.Set(c.col, c.row, v)
	}
	return out, nil
}

// Sensors returns the sensors attached to the link.
func (l Link) Sensors() ([]Sensor, error) {
	nodes := l.node.SelectElements("sensor")
	out := make([]Sensor, 0, len(nodes))
	for _, n := range nodes {
		s, err := NewSensor(n, l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

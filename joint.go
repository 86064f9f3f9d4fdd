package sdf

import (
	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/pose"
	"github.com/jacoelho/sdf/internal/xmltree"
)

// axisCount is the number of axes of each supported joint type.
var axisCount = map[string]int{
	"revolute":   1,
	"continuous": 1,
	"gearbox":    1,
	"prismatic":  1,
	"revolute2":  2,
	"ball":       2,
	"universal":  2,
	"piston":     2,
	"screw":      1,
}

// Joint is a kinematic constraint between two links. A joint built with a
// *Model parent has its links resolved against that model.
type Joint struct {
	Element
	parentLink Link
	childLink  Link
	resolved   bool
}

// NewJoint wraps a joint node.
func NewJoint(node *etree.Element, parent Entity) (Joint, error) {
	el, err := newElement(KindJoint, node, parent, "joint")
	if err != nil {
		return Joint{}, err
	}
	j := Joint{Element: el}
	m, ok := parent.(*Model)
	if !ok {
		return j, nil
	}
	if j.parentLink, err = j.resolve(m, "parent"); err != nil {
		return Joint{}, err
	}
	if j.childLink, err = j.resolve(m, "child"); err != nil {
		return Joint{}, err
	}
	j.resolved = true
	return j, nil
}

func (j Joint) resolve(m *Model, role string) (Link, error) {
	refs := xmltree.Children(j.node, role)
	switch len(refs) {
	case 0:
		return Link{}, errors.Newf(errors.ErrInvalid, j.Path(),
			"required child element '%s' of %s not found", role, j)
	case 1:
		return m.resolveLink(xmltree.Text(refs[0]), j.Name(), role)
	}
	return Link{}, errors.Newf(errors.ErrInvalid, j.Path(), "more than one '%s' in %s", role, j)
}

// Type returns the joint type attribute.
func (j Joint) Type() (string, error) {
	t := j.node.SelectAttr("type")
	if t == nil {
		return "", errors.Newf(errors.ErrInvalid, j.Path(), "expected attribute 'type' missing on %s", j)
	}
	return t.Value, nil
}

// Pose returns the joint pose relative to its child link.
func (j Joint) Pose() (Transform, error) {
	return j.decodePose()
}

// ParentLink returns the link the joint is attached to.
func (j Joint) ParentLink() (Link, error) {
	if !j.resolved {
		return Link{}, errors.Newf(errors.ErrInvalid, j.Path(), "%s is not part of a model", j)
	}
	return j.parentLink, nil
}

// ChildLink returns the link the joint moves.
func (j Joint) ChildLink() (Link, error) {
	if !j.resolved {
		return Link{}, errors.Newf(errors.ErrInvalid, j.Path(), "%s is not part of a model", j)
	}
	return j.childLink, nil
}

// Axis returns the main axis of the joint.
func (j Joint) Axis() (Axis, error) {
	return j.axis("axis", 1)
}

// Axis2 returns the second axis of two-axis joints.
func (j Joint) Axis2() (Axis, error) {
	return j.axis("axis2", 2)
}

func (j Joint) axis(tag string, index int) (Axis, error) {
	t, err := j.Type()
	if err != nil {
		return Axis{}, err
	}
	n, ok := axisCount[t]
	if !ok || n < index {
		return Axis{}, errors.Newf(errors.ErrInvalid, j.Path(), "joint type %s has no %s", t, tag)
	}
	node, err := j.ChildByName(tag, true)
	if err != nil {
		return Axis{}, err
	}
	return Axis{Element: Element{node: node, parent: j, kind: KindAxis}}, nil
}

// TransformFor returns the transform of the child link relative to the joint
// frame at the given joint position: a rotation in radians for revolute
// joints, a translation for prismatic joints.
func (j Joint) TransformFor(position float64) (Transform, error) {
	t, err := j.Type()
	if err != nil {
		return Transform{}, err
	}
	switch t {
	case "fixed":
		return pose.Identity(), nil
	case "revolute", "continuous", "gearbox", "prismatic":
	default:
		return Transform{}, errors.Newf(errors.ErrInvalid, j.Path(),
			"cannot compute the transform of a %s joint", t)
	}

	axis, err := j.Axis()
	if err != nil {
		return Transform{}, err
	}
	xyz, err := axis.XYZ()
	if err != nil {
		return Transform{}, err
	}
	if xyz.Len() == 0 {
		return Transform{}, errors.Newf(errors.ErrInvalid, axis.Path(), "%s has a zero axis", j)
	}
	xyz = xyz.Normalize()
	if t == "prismatic" {
		return pose.Translate(xyz.Mul(position)), nil
	}
	return pose.Rotate(mgl64.QuatRotate(position, xyz)), nil
}

// Axis is the axis of a joint.
type Axis struct {
	Element
}

// NewAxis wraps an axis or axis2 node.
func NewAxis(node *etree.Element, parent Entity) (Axis, error) {
	el, err := newElement(KindAxis, node, parent, "axis", "axis2")
	if err != nil {
		return Axis{}, err
	}
	return Axis{Element: el}, nil
}

// XYZ returns the axis direction, zero when absent.
func (a Axis) XYZ() (mgl64.Vec3, error) {
	child, err := a.optionalChild("xyz")
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return pose.Vector3(child)
}

// UseParentModelFrame reports whether xyz is expressed in the parent model
// frame.
func (a Axis) UseParentModelFrame() (bool, error) {
	child, err := a.optionalChild("use_parent_model_frame")
	if err != nil || child == nil {
		return false, err
	}
	return pose.Bool(child)
}

// Limit returns the axis limits. A missing limit element yields a limit with
// no values set.
func (a Axis) Limit() (AxisLimit, error) {
	node, err := a.ChildByName("limit", false)
	if err != nil {
		return AxisLimit{}, err
	}
	return AxisLimit{Element: Element{node: node, parent: a, kind: KindAxisLimit}}, nil
}

// AxisLimit holds the bounds of a joint axis. Values are returned as the
// document stores them: radians and rad/s for angular joints, meters and m/s
// for linear ones.
type AxisLimit struct {
	Element
}

// NewAxisLimit wraps a limit node.
func NewAxisLimit(node *etree.Element, parent Entity) (AxisLimit, error) {
	el, err := newElement(KindAxisLimit, node, parent, "limit")
	if err != nil {
		return AxisLimit{}, err
	}
	return AxisLimit{Element: el}, nil
}

// Read returns the value of the named child. ok is false when it is absent.
func (l AxisLimit) Read(tag string) (value float64, ok bool, err error) {
	child, err := l.optionalChild(tag)
	if err != nil || child == nil {
		return 0, false, err
	}
	v, err := pose.Float(child)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Lower returns the lower position bound.
func (l AxisLimit) Lower() (float64, bool, error) { return l.Read("lower") }

// Upper returns the upper position bound.
func (l AxisLimit) Upper() (float64, bool, error) { return l.Read("upper") }

// Effort returns the maximum effort.
func (l AxisLimit) Effort() (float64, bool, error) { return l.Read("effort") }

// Velocity returns the maximum velocity.
func (l AxisLimit) Velocity() (float64, bool, error) { return l.Read("velocity") }

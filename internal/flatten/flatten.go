// Package flatten inlines nested models into their parent model, prefixing
// the names of their elements and composing link poses with the submodel
// pose.
package flatten

import (
	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/internal/pose"
	"github.com/jacoelho/sdf/internal/xmltree"
)

// Separator joins a submodel name and the name of one of its elements.
const Separator = "::"

// WorldLink is the joint endpoint name that refers to the world frame. It is
// never namespaced.
const WorldLink = "world"

// Tree flattens every model found at or below e, innermost models first.
// Flat input is left unchanged.
func Tree(e *etree.Element) error {
	if e.Tag != "model" {
		for _, c := range e.ChildElements() {
			if err := Tree(c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, sub := range e.ChildElements() {
		if sub.Tag != "model" {
			continue
		}
		if err := Tree(sub); err != nil {
			return err
		}
		nodes, err := Submodel(sub)
		if err != nil {
			return err
		}
		if err := xmltree.Splice(e, sub, nodes); err != nil {
			return err
		}
	}
	return nil
}

// Submodel prepares the children of a flat submodel for splicing into its
// parent and returns them in document order, without the submodel pose.
// Links get the submodel pose composed into their own and joint axes are
// rotated by it, unless the axis is expressed in the parent model frame.
// Frame and joint poses are left as they are. Joint parent and child texts
// are prefixed like names, except WorldLink, which keeps naming the world
// frame after flattening.
func Submodel(sub *etree.Element) ([]*etree.Element, error) {
	base := xmltree.Name(sub)
	model, err := pose.Decode(sub.SelectElement("pose"))
	if err != nil {
		return nil, err
	}

	var out []*etree.Element
	for _, c := range sub.ChildElements() {
		if c.Tag == "pose" {
			continue
		}
		if attr := c.SelectAttr("name"); attr != nil {
			attr.Value = base + Separator + attr.Value
		}
		if c.Tag == "joint" {
			prefixLink(c.SelectElement("parent"), base)
			prefixLink(c.SelectElement("child"), base)
		}
		out = append(out, c)
	}

	if model.IsIdentity() {
		return out, nil
	}
	for _, c := range out {
		switch c.Tag {
		case "link":
			if err := moveLink(c, model); err != nil {
				return nil, err
			}
		case "joint":
			if err := rotateAxis(c.SelectElement("axis"), model); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func prefixLink(ref *etree.Element, base string) {
	if ref == nil {
		return
	}
	name := xmltree.Text(ref)
	if name == WorldLink {
		return
	}
	ref.SetText(base + Separator + name)
}

func moveLink(link *etree.Element, model pose.Transform) error {
	local, err := pose.Decode(link.SelectElement("pose"))
	if err != nil {
		return err
	}
	xmltree.ReplaceOrAppend(link, pose.Element(model.Compose(local)))
	return nil
}

func rotateAxis(axis *etree.Element, model pose.Transform) error {
	if axis == nil {
		return nil
	}
	if flag := axis.SelectElement("use_parent_model_frame"); flag != nil {
		inParent, err := pose.Bool(flag)
		if err != nil {
			return err
		}
		if inParent {
			return nil
		}
	}
	xyz := axis.SelectElement("xyz")
	if xyz == nil {
		return nil
	}
	v, err := pose.Vector3(xyz)
	if err != nil {
		return err
	}
	xyz.SetText(pose.EncodeVector3(model.Rotation.Rotate(v)))
	return nil
}

package sdf

import (
	"github.com/beevik/etree"
)

// World is a simulation world: models plus environment settings.
type World struct {
	Element
}

// NewWorld wraps a world node.
func NewWorld(node *etree.Element, parent Entity) (World, error) {
	el, err := newElement(KindWorld, node, parent, "world")
	if err != nil {
		return World{}, err
	}
	return World{Element: el}, nil
}

// Models returns the models declared directly in the world.
func (w World) Models() ([]*Model, error) {
	return modelsOf(w)
}

// Physics returns the physics settings. A world without physics yields
// default settings.
func (w World) Physics() (Physics, error) {
	node, err := w.ChildByName("physics", false)
	if err != nil {
		return Physics{}, err
	}
	return Physics{Element: Element{node: node, parent: w, kind: KindPhysics}}, nil
}

// SphericalCoordinates returns the world's geographic anchor. A world without
// one yields default settings.
func (w World) SphericalCoordinates() (SphericalCoordinates, error) {
	node, err := w.ChildByName("spherical_coordinates", false)
	if err != nil {
		return SphericalCoordinates{}, err
	}
	return SphericalCoordinates{Element: Element{node: node, parent: w, kind: KindSphericalCoordinates}}, nil
}

// FindByName resolves a "::"-qualified name relative to the world.
func (w World) FindByName(name string) (Entity, error) {
	return findChildByName(w, name)
}

func modelsOf(scope Entity) ([]*Model, error) {
	nodes := scope.XML().SelectElements("model")
	out := make([]*Model, 0, len(nodes))
	for _, n := range nodes {
		m, err := NewModel(n, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

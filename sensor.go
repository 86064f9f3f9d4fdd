package sdf

import (
	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/pose"
)

// Sensor is a sensor attached to a link. Its type-specific settings live in
// the child named after the type, see Info.
type Sensor struct {
	Element
}

// NewSensor wraps a sensor node.
func NewSensor(node *etree.Element, parent Entity) (Sensor, error) {
	el, err := newElement(KindSensor, node, parent, "sensor")
	if err != nil {
		return Sensor{}, err
	}
	return Sensor{Element: el}, nil
}

// Type returns the sensor type attribute, "" when absent.
func (s Sensor) Type() string {
	return s.node.SelectAttrValue("type", "")
}

// Info returns the type-specific block (e.g. <ray> for a ray sensor), nil
// when absent.
func (s Sensor) Info() *etree.Element {
	t := s.Type()
	if t == "" {
		return nil
	}
	return s.node.SelectElement(t)
}

// Pose returns the sensor pose relative to its link.
func (s Sensor) Pose() (Transform, error) {
	return s.decodePose()
}

// UpdateRate returns the update rate in Hz. ok is false when unset.
func (s Sensor) UpdateRate() (rate float64, ok bool, err error) {
	child, err := s.optionalChild("update_rate")
	if err != nil || child == nil {
		return 0, false, err
	}
	if rate, err = pose.Float(child); err != nil {
		return 0, false, err
	}
	return rate, true, nil
}

// UpdatePeriod returns the update period in seconds. ok is false when no
// positive rate is set.
func (s Sensor) UpdatePeriod() (period float64, ok bool, err error) {
	rate, ok, err := s.UpdateRate()
	if err != nil || !ok || rate <= 0 {
		return 0, false, err
	}
	return 1 / rate, true, nil
}

// Plugin is a shared library loaded by the simulator.
type Plugin struct {
	Element
}

// NewPlugin wraps a plugin node.
func NewPlugin(node *etree.Element, parent Entity) (Plugin, error) {
	el, err := newElement(KindPlugin, node, parent, "plugin")
	if err != nil {
		return Plugin{}, err
	}
	return Plugin{Element: el}, nil
}

// Filename returns the library file name.
func (p Plugin) Filename() (string, error) {
	f := p.node.SelectAttr("filename")
	if f == nil {
		return "", errors.Newf(errors.ErrInvalid, p.Path(), "expected attribute 'filename' missing on %s", p)
	}
	return f.Value, nil
}

// Frame is a named coordinate frame. Flattening leaves frame poses as
// declared.
type Frame struct {
	Element
}

// NewFrame wraps a frame node.
func NewFrame(node *etree.Element, parent Entity) (Frame, error) {
	el, err := newElement(KindFrame, node, parent, "frame")
	if err != nil {
		return Frame{}, err
	}
	return Frame{Element: el}, nil
}

// Pose returns the frame pose relative to its parent.
func (f Frame) Pose() (Transform, error) {
	return f.decodePose()
}

package sdf

import (
	"github.com/beevik/etree"

	"github.com/jacoelho/sdf/internal/pose"
)

// Physics holds the physics engine parameters of a world.
type Physics struct {
	Element
}

// NewPhysics wraps a physics node.
func NewPhysics(node *etree.Element, parent Entity) (Physics, error) {
	el, err := newElement(KindPhysics, node, parent, "physics")
	if err != nil {
		return Physics{}, err
	}
	return Physics{Element: el}, nil
}

// Type returns the selected engine, "" when unset.
func (p Physics) Type() string {
	return p.node.SelectAttrValue("type", "")
}

// RealTimeFactor returns the simulated time to real time ratio, 1 when
// unset.
func (p Physics) RealTimeFactor() (float64, error) {
	child, err := p.optionalChild("real_time_factor")
	if err != nil || child == nil {
		return 1, err
	}
	return pose.Float(child)
}

// RealTimeUpdateRate returns the update rate in real time Hz. ok is false
// when unset.
func (p Physics) RealTimeUpdateRate() (rate int, ok bool, err error) {
	child, err := p.optionalChild("real_time_update_rate")
	if err != nil || child == nil {
		return 0, false, err
	}
	if rate, err = pose.Int(child); err != nil {
		return 0, false, err
	}
	return rate, true, nil
}

// RealTimeUpdatePeriod returns the update period in real time seconds. ok is
// false when no positive rate is set.
func (p Physics) RealTimeUpdatePeriod() (float64, bool, error) {
	rate, ok, err := p.RealTimeUpdateRate()
	if err != nil || !ok || rate <= 0 {
		return 0, false, err
	}
	return 1 / float64(rate), true, nil
}

// SimulationTimeUpdatePeriod returns the update period in simulated
// seconds. ok is false when the real time period is unset.
func (p Physics) SimulationTimeUpdatePeriod() (float64, bool, error) {
	period, ok, err := p.RealTimeUpdatePeriod()
	if err != nil || !ok {
		return 0, false, err
	}
	factor, err := p.RealTimeFactor()
	if err != nil {
		return 0, false, err
	}
	return period * factor, true, nil
}

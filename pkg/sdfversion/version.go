// Package sdfversion converts SDF "MAJOR.MINOR" version strings to and from
// the integer form MAJOR*100+MINOR used to compare them.
package sdfversion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts a version string such as "1.5" to its integer form (150).
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse sdf version: empty string")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sdf version %q: %w", s, err)
	}
	if f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("parse sdf version %q: out of range", s)
	}
	return int(math.Round(f * 100)), nil
}

// Format converts an integer version back to "MAJOR.MINOR".
func Format(v int) string {
	major, minor := v/100, v%100
	if minor == 0 {
		return fmt.Sprintf("%d.0", major)
	}
	digits := strings.TrimRight(fmt.Sprintf("%02d", minor), "0")
	return fmt.Sprintf("%d.%s", major, digits)
}

// Ceiling is an optional upper bound on acceptable versions. The zero value
// accepts every version.
type Ceiling struct {
	value int
	set   bool
}

// Latest returns a ceiling that accepts every version.
func Latest() Ceiling {
	return Ceiling{}
}

// Max returns a ceiling accepting versions up to and including v.
func Max(v int) Ceiling {
	return Ceiling{value: v, set: true}
}

// ParseCeiling parses a version string into a ceiling. An empty string
// yields Latest.
func ParseCeiling(s string) (Ceiling, error) {
	if strings.TrimSpace(s) == "" {
		return Latest(), nil
	}
	v, err := Parse(s)
	if err != nil {
		return Ceiling{}, err
	}
	return Max(v), nil
}

// Value returns the bound and whether one is set.
func (c Ceiling) Value() (int, bool) {
	return c.value, c.set
}

// Allows reports whether v is under the ceiling.
func (c Ceiling) Allows(v int) bool {
	return !c.set || v <= c.value
}

func (c Ceiling) String() string {
	if !c.set {
		return "latest"
	}
	return Format(c.value)
}

package sdf

import (
	"fmt"

	"github.com/jacoelho/sdf/pkg/sdfversion"
)

// NewLoadOptions returns a default, valid load options value: flattening on,
// latest version.
func NewLoadOptions() LoadOptions {
	return LoadOptions{}
}

// WithFlatten controls whether nested models are flattened after loading.
func (o LoadOptions) WithFlatten(value bool) LoadOptions {
	o.flatten = boolOption{value: value, set: true}
	return o
}

// WithVersion sets the version ceiling as MAJOR*100+MINOR (must be positive).
func (o LoadOptions) WithVersion(value int) LoadOptions {
	if value <= 0 {
		o.bad = fmt.Errorf("version ceiling %d must be positive", value)
		return o
	}
	o.bad = nil
	o.version = sdfversion.Max(value)
	return o
}

// WithCeiling sets the version ceiling.
func (o LoadOptions) WithCeiling(value sdfversion.Ceiling) LoadOptions {
	o.bad = nil
	o.version = value
	return o
}

// Flatten reports whether nested models are flattened (default true).
func (o LoadOptions) Flatten() bool {
	return o.flatten.resolved(true)
}

// Version returns the version ceiling (default latest).
func (o LoadOptions) Version() sdfversion.Ceiling {
	return o.version
}

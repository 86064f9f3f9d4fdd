package sdf

import (
	"fmt"

	"github.com/jacoelho/sdf/pkg/sdfversion"
)

type boolOption struct {
	value bool
	set   bool
}

func (o boolOption) resolved(def bool) bool {
	if !o.set {
		return def
	}
	return o.value
}

// LoadOptions configures how a document or model is loaded.
type LoadOptions struct {
	flatten boolOption
	version sdfversion.Ceiling
	bad     error
}

type resolvedLoadOptions struct {
	ceiling sdfversion.Ceiling
	flatten bool
}

// Validate validates load options values.
func (o LoadOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o LoadOptions) withDefaults() (resolvedLoadOptions, error) {
	if o.bad != nil {
		return resolvedLoadOptions{}, fmt.Errorf("load options: %w", o.bad)
	}
	return resolvedLoadOptions{
		flatten: o.flatten.resolved(true),
		ceiling: o.version,
	}, nil
}

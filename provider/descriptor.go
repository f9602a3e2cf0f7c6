package provider

import (
	"slices"

	"github.com/kbukum/cachekit/resource"
)

// Descriptor is the immutable query handed to selection: the resources a
// store must live in plus opaque auxiliary configuration.
type Descriptor struct {
	required resource.Set
	configs  []ServiceConfig
}

// NewDescriptor builds a Descriptor. Nil configuration entries are dropped;
// nothing else is validated here.
func NewDescriptor(required resource.Set, configs ...ServiceConfig) Descriptor {
	kept := make([]ServiceConfig, 0, len(configs))
	for _, c := range configs {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return Descriptor{required: required, configs: kept}
}

// Required returns the requested resource set.
func (d Descriptor) Required() resource.Set { return d.required }

// Configs returns a fresh copy of the auxiliary entries. Never nil.
func (d Descriptor) Configs() []ServiceConfig {
	if d.configs == nil {
		return []ServiceConfig{}
	}
	return slices.Clone(d.configs)
}

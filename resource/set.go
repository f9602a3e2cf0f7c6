package resource

import (
	"slices"
	"strings"
)

// Set is an immutable collection of resource types kept in name order.
// The zero Set is the empty set.
type Set struct {
	types []Type
}

// NewSet builds a Set, dropping duplicates. Types are identified by name;
// of several types sharing a name the first one given is kept.
func NewSet(types ...Type) Set {
	if len(types) == 0 {
		return Set{}
	}
	sorted := slices.Clone(types)
	slices.SortStableFunc(sorted, func(a, b Type) int { return strings.Compare(a.name, b.name) })
	sorted = slices.CompactFunc(sorted, sameName)
	return Set{types: sorted}
}

func sameName(a, b Type) bool { return a.name == b.name }

// Len returns the number of types in the set.
func (s Set) Len() int { return len(s.types) }

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool { return len(s.types) == 0 }

// Contains reports whether t is a member.
func (s Set) Contains(t Type) bool {
	return slices.ContainsFunc(s.types, func(m Type) bool { return m.name == t.name })
}

// ContainsAll reports whether every given type is a member.
func (s Set) ContainsAll(types ...Type) bool {
	for _, t := range types {
		if !s.Contains(t) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold exactly the same types.
func (s Set) Equal(other Set) bool {
	return slices.EqualFunc(s.types, other.types, sameName)
}

// Is reports whether the set consists of exactly the given types.
func (s Set) Is(types ...Type) bool {
	return s.Equal(NewSet(types...))
}

// Without returns a copy of the set with the given types removed.
func (s Set) Without(types ...Type) Set {
	kept := make([]Type, 0, len(s.types))
	for _, t := range s.types {
		if !slices.ContainsFunc(types, func(r Type) bool { return r.name == t.name }) {
			kept = append(kept, t)
		}
	}
	return Set{types: kept}
}

// Types returns a copy of the members in name order.
func (s Set) Types() []Type {
	return slices.Clone(s.types)
}

// Names returns the member names in order.
func (s Set) Names() []string {
	names := make([]string, len(s.types))
	for i, t := range s.types {
		names[i] = t.name
	}
	return names
}

// IsPersistable reports whether any member can survive a restart.
func (s Set) IsPersistable() bool {
	return slices.ContainsFunc(s.types, Type.IsPersistable)
}

// RequiresSerialization reports whether any member needs encoded values.
func (s Set) RequiresSerialization() bool {
	return slices.ContainsFunc(s.types, Type.RequiresSerialization)
}

func (s Set) String() string {
	return "[" + strings.Join(s.Names(), ", ") + "]"
}

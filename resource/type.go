package resource

import (
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/cachekit/errors"
)

// Type identifies a storage tier.
type Type struct {
	name                  string
	persistable           bool
	requiresSerialization bool
}

// Built-in resource types.
var (
	Heap      = Type{name: "heap"}
	OffHeap   = Type{name: "offheap", requiresSerialization: true}
	Disk      = Type{name: "disk", persistable: true, requiresSerialization: true}
	Clustered = Type{name: "clustered", persistable: true, requiresSerialization: true}
)

// Name returns the lower-case identifier of the type.
func (t Type) Name() string { return t.name }

// IsPersistable reports whether data in this tier can survive a restart.
func (t Type) IsPersistable() bool { return t.persistable }

// RequiresSerialization reports whether values must be encoded to live in this tier.
func (t Type) RequiresSerialization() bool { return t.requiresSerialization }

func (t Type) String() string { return t.name }

var known = struct {
	mu    sync.RWMutex
	types map[string]Type
}{types: map[string]Type{
	Heap.name:      Heap,
	OffHeap.name:   OffHeap,
	Disk.name:      Disk,
	Clustered.name: Clustered,
}}

// Define registers a third-party resource type so it can be named in configuration.
// Redefining an existing name with different facets fails.
func Define(name string, persistable, requiresSerialization bool) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Type{}, errors.MissingField("name")
	}
	t := Type{name: key, persistable: persistable, requiresSerialization: requiresSerialization}

	known.mu.Lock()
	defer known.mu.Unlock()
	if existing, ok := known.types[key]; ok {
		if existing != t {
			return Type{}, errors.AlreadyExists("resource type " + key)
		}
		return existing, nil
	}
	known.types[key] = t
	return t, nil
}

// Lookup resolves a resource type by name, case-insensitively.
func Lookup(name string) (Type, bool) {
	known.mu.RLock()
	defer known.mu.RUnlock()
	t, ok := known.types[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Names returns every known resource type name, sorted.
func Names() []string {
	known.mu.RLock()
	defer known.mu.RUnlock()
	names := make([]string, 0, len(known.types))
	for name := range known.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Parse resolves every name into a Set. Unknown names fail with INVALID_INPUT.
func Parse(names ...string) (Set, error) {
	types := make([]Type, 0, len(names))
	for _, name := range names {
		t, ok := Lookup(name)
		if !ok {
			return Set{}, errors.InvalidInput("resources", "unknown resource type "+name).
				WithDetail("resource", name)
		}
		types = append(types, t)
	}
	return NewSet(types...), nil
}

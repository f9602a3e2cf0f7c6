package provider

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/cachekit/errors"
)

// Registry is the ordered directory of provider instances and the named
// factories that build them. Registration order is the tie-break order, so
// register built-in providers before third-party ones.
//
// Selection never reads the Registry directly; it works on a Snapshot.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	providers []Provider
	index     map[string]int
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		index:     make(map[string]int),
	}
}

// RegisterFactory registers a named factory for creating providers.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a provider using the named factory and config.
// The provider is not registered.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("provider factory", name)
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider %q: %w", name, err)
	}
	return p, nil
}

// Register appends a provider. Names must be unique.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.MissingField("provider")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.index[name]; exists {
		return errors.AlreadyExists("provider " + name)
	}
	r.index[name] = len(r.providers)
	r.providers = append(r.providers, p)
	return nil
}

// RegisterFrom creates a provider from the named factory and registers it.
func (r *Registry) RegisterFrom(name string, cfg map[string]any) (Provider, error) {
	p, err := r.Create(name, cfg)
	if err != nil {
		return nil, err
	}
	if err := r.Register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a registered provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.providers[i], true
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Factories returns sorted names of all registered factories.
func (r *Registry) Factories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Snapshot returns a copy of the providers in registration order. Later
// registrations do not affect a snapshot already taken.
func (r *Registry) Snapshot() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.providers)
}

// StartAll starts every Startable provider in registration order and stops
// at the first failure.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, p := range r.Snapshot() {
		s, ok := p.(Startable)
		if !ok {
			continue
		}
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("start provider %s: %w", p.Name(), err)
		}
	}
	return nil
}

// StopAll stops every Stoppable provider in reverse registration order and
// reports all failures together.
func (r *Registry) StopAll(ctx context.Context) error {
	var result *multierror.Error
	providers := r.Snapshot()
	for i := len(providers) - 1; i >= 0; i-- {
		s, ok := providers[i].(Stoppable)
		if !ok {
			continue
		}
		if err := s.Stop(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop provider %s: %w", providers[i].Name(), err))
		}
	}
	return result.ErrorOrNil()
}

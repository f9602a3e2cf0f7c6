package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

// componentEntry holds a component and its started state.
type componentEntry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering.
// Components are started in registration order and stopped in reverse order.
type Registry struct {
	entries     []*componentEntry
	lookup      map[string]*componentEntry
	stopTimeout time.Duration
	mu          sync.RWMutex
}

// NewRegistry creates a new component registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:     make([]*componentEntry, 0),
		lookup:      make(map[string]*componentEntry),
		stopTimeout: DefaultStopTimeout,
	}
}

// SetStopTimeout changes the per-component Stop deadline.
func (r *Registry) SetStopTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimeout = d
}

// Register adds a component to the registry. Components are started in
// the order they are registered, so register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return errors.AlreadyExists("component " + name)
	}

	entry := &componentEntry{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	logger.Debug("component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts all components in registration order. On failure the
// components already started are stopped in reverse order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("starting all components", logger.Fields("count", len(r.entries)))

	for _, entry := range r.entries {
		if entry.started {
			continue
		}
		name := entry.component.Name()
		if err := entry.component.Start(ctx); err != nil {
			logger.Error("component start failed", logger.MergeError(logger.Fields(logger.FieldComponent, name), err))
			if rerr := r.stopStarted(ctx); rerr != nil {
				logger.Warn("rollback after failed start", logger.MergeError(nil, rerr))
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		entry.started = true

		fields := logger.Fields(logger.FieldComponent, name)
		if d, ok := entry.component.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		logger.Info("component started", fields)
	}
	return nil
}

// StopAll gracefully stops all started components in reverse registration
// order. Every failure is reported.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("stopping all components")
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var result error
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !entry.started {
			continue
		}
		name := entry.component.Name()

		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		if err := entry.component.Stop(stopCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to stop %s: %w", name, err))
			logger.Error("component stop failed", logger.MergeError(logger.Fields(logger.FieldComponent, name), err))
		} else {
			logger.Info("component stopped", logger.Fields(logger.FieldComponent, name))
		}
		entry.started = false
		cancel()
	}
	return result
}

// HealthAll returns health status for all registered components.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, 0, len(r.entries))
	for _, entry := range r.entries {
		results = append(results, entry.component.Health(ctx))
	}
	return results
}

// Get returns a registered component by name, or nil if not found.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.lookup[name]; exists {
		return entry.component
	}
	return nil
}

// All returns all registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Component, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.component)
	}
	return result
}

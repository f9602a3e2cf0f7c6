package provider

import (
	"context"

	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

// Provider is implemented by every storage backend that can be selected.
//
// Rank reports how well the provider suits the requested resources. Higher
// is better; a non-positive rank declines the request. Rank must be cheap,
// non-blocking, safe for concurrent use and must not modify its arguments.
// It may keep internal counters.
//
// The store lifecycle methods are never called during selection. The caller
// that received the winning provider creates, initializes and releases stores.
type Provider interface {
	// Name returns a human-readable identifier used in logs and errors.
	Name() string
	// Rank scores the provider for the required resources and auxiliary configuration.
	Rank(required resource.Set, configs []ServiceConfig) int
	// CreateStore builds a new store instance.
	CreateStore(ctx context.Context, cfg store.Config, configs ...ServiceConfig) (store.Store, error)
	// InitStore prepares a store created by this provider for use.
	InitStore(ctx context.Context, s store.Store) error
	// ReleaseStore frees a store created by this provider.
	ReleaseStore(ctx context.Context, s store.Store) error
}

// ServiceConfig is an opaque auxiliary configuration entry passed to providers
// alongside the resource set. ServiceName names the provider it targets.
type ServiceConfig interface {
	ServiceName() string
}

// Factory creates a provider instance from configuration.
type Factory func(cfg map[string]any) (Provider, error)

// Startable is optionally implemented by providers that need setup before
// they can create stores (e.g., dial a server). Registry.StartAll calls it.
type Startable interface {
	Start(ctx context.Context) error
}

// Stoppable is optionally implemented by providers holding resources shared
// across stores. Registry.StopAll calls it in reverse registration order.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// FindConfig returns the first entry of type T.
func FindConfig[T ServiceConfig](configs []ServiceConfig) (T, bool) {
	for _, c := range configs {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

package cache

import (
	"context"

	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resource"
)

// Cache is a named store built by the provider selected for its resources.
type Cache struct {
	name      string
	resources resource.Set
	handle    *provider.Handle
}

// Name returns the configured cache name.
func (c *Cache) Name() string { return c.name }

// Resources returns the resource set the cache was built for.
func (c *Cache) Resources() resource.Set { return c.resources }

// Provider returns the name of the provider backing the cache.
func (c *Cache) Provider() string { return c.handle.Provider.Name() }

// Rank returns the rank the backing provider reported when selected.
func (c *Cache) Rank() int { return c.handle.Rank }

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) (any, bool, error) {
	return c.handle.Store.Get(ctx, key)
}

// Put stores value under key.
func (c *Cache) Put(ctx context.Context, key string, value any) error {
	return c.handle.Store.Put(ctx, key, value)
}

// Remove deletes key.
func (c *Cache) Remove(ctx context.Context, key string) error {
	return c.handle.Store.Remove(ctx, key)
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.handle.Store.Clear(ctx)
}

// Len returns the number of entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	return c.handle.Store.Len(ctx)
}

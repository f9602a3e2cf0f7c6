package store

import (
	"context"
	"time"

	"github.com/kbukum/cachekit/resource"
)

// Store is a key-value storage engine instance.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) (any, bool, error)
	// Put stores value under key, replacing any previous mapping.
	Put(ctx context.Context, key string, value any) error
	// Remove deletes the mapping for key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Clear removes every mapping.
	Clear(ctx context.Context) error
	// Len returns the number of live mappings.
	Len(ctx context.Context) (int, error)
}

// Config describes the store a provider should create.
type Config struct {
	// Name identifies the cache the store backs.
	Name string
	// Resources is the resource set the store was selected for.
	Resources resource.Set
	// MaxEntries bounds the entry count where the engine supports it. 0 means unbounded.
	MaxEntries int
	// TTL expires entries where the engine supports it. 0 means no expiration.
	TTL time.Duration
	// Codec encodes values for tiers that require serialization. Nil means JSONCodec.
	Codec Codec
}

// CodecOrDefault returns the configured codec, falling back to JSON.
func (c Config) CodecOrDefault() Codec {
	if c.Codec == nil {
		return JSONCodec{}
	}
	return c.Codec
}

package tiered

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/store"
)

// tier is a store together with the provider that owns its lifecycle.
type tier struct {
	store    store.Store
	provider provider.Provider
}

// Store layers a caching tier over an authority tier.
//
// Every write bumps epoch before invalidating the caching tier. A read
// fills the caching tier only if no write started since it read the
// authority, so a slow read never caches a value a write has replaced.
type Store struct {
	name      string
	caching   tier
	authority tier

	mu    sync.Mutex
	epoch uint64
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) bump() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}

// CachingProvider returns the name of the provider backing the caching tier.
func (s *Store) CachingProvider() string { return s.caching.provider.Name() }

// AuthorityProvider returns the name of the provider backing the authority tier.
func (s *Store) AuthorityProvider() string { return s.authority.provider.Name() }

func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	if v, ok, err := s.caching.store.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	seen := s.currentEpoch()
	v, ok, err := s.authority.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != seen {
		return v, true, nil
	}
	if err := s.caching.store.Put(ctx, key, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value any) error {
	err := s.authority.store.Put(ctx, key, value)
	s.bump()
	if err != nil {
		return err
	}
	return s.caching.store.Remove(ctx, key)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.authority.store.Remove(ctx, key)
	s.bump()
	if err != nil {
		return err
	}
	return s.caching.store.Remove(ctx, key)
}

func (s *Store) Clear(ctx context.Context) error {
	var result error
	err := s.authority.store.Clear(ctx)
	s.bump()
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.caching.store.Clear(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Len reports the authority's size; the caching tier holds a subset.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.authority.store.Len(ctx)
}

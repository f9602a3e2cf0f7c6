package heap

import (
	"context"
	"sync"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

// Name is the provider name used for registration and ServiceConfig matching.
const Name = "heap"

// Options tunes heap stores. Pass it as a ServiceConfig to override the
// limits in store.Config.
type Options struct {
	MaxEntries int `mapstructure:"max_entries"`
}

func (Options) ServiceName() string { return Name }

// Provider creates heap stores.
type Provider struct {
	log *logger.Logger

	mu     sync.Mutex
	stores map[*Store]struct{}
}

var _ provider.Provider = (*Provider)(nil)

// New creates a heap provider.
func New() *Provider {
	return &Provider{
		log:    logger.Get("heap"),
		stores: make(map[*Store]struct{}),
	}
}

// Factory adapts New to provider.Factory. The configuration is unused.
func Factory(map[string]any) (provider.Provider, error) {
	return New(), nil
}

func (p *Provider) Name() string { return Name }

// Rank returns 1 for exactly {heap} and 0 otherwise.
func (p *Provider) Rank(required resource.Set, _ []provider.ServiceConfig) int {
	if required.Is(resource.Heap) {
		return 1
	}
	return 0
}

func (p *Provider) CreateStore(_ context.Context, cfg store.Config, configs ...provider.ServiceConfig) (store.Store, error) {
	maxEntries := cfg.MaxEntries
	if opts, ok := provider.FindConfig[Options](configs); ok && opts.MaxEntries > 0 {
		maxEntries = opts.MaxEntries
	}
	if maxEntries < 0 {
		return nil, errors.InvalidInput("max_entries", "must not be negative")
	}

	s := newStore(cfg.Name, maxEntries, cfg.TTL)
	p.mu.Lock()
	p.stores[s] = struct{}{}
	p.mu.Unlock()
	return s, nil
}

func (p *Provider) InitStore(_ context.Context, s store.Store) error {
	hs, err := p.own(s)
	if err != nil {
		return err
	}
	p.log.Debug("heap store ready", logger.Fields(
		logger.FieldCache, hs.name,
		"store_id", hs.id,
		"max_entries", hs.maxEntries,
	))
	return nil
}

func (p *Provider) ReleaseStore(_ context.Context, s store.Store) error {
	hs, err := p.own(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.stores, hs)
	p.mu.Unlock()
	if hs.close() {
		p.log.Debug("heap store released", logger.Fields(logger.FieldCache, hs.name, "store_id", hs.id))
	}
	return nil
}

// Live returns the number of stores created and not yet released.
func (p *Provider) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stores)
}

func (p *Provider) own(s store.Store) (*Store, error) {
	hs, ok := s.(*Store)
	if !ok {
		return nil, errors.InvalidInput("store", "not created by the heap provider")
	}
	p.mu.Lock()
	_, live := p.stores[hs]
	p.mu.Unlock()
	if !live {
		return nil, errors.StoreClosed(hs.name)
	}
	return hs, nil
}

package tiered

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

// Name is the provider name used for registration.
const Name = "tiered"

// Rank is the rank reported for a supported two-tier request.
const Rank = 2

// Provider assembles tiered stores from the providers returned by
// candidates, typically a Registry's Snapshot.
type Provider struct {
	candidates func() []provider.Provider
	selector   provider.Selector
	log        *logger.Logger

	mu     sync.Mutex
	stores map[*Store]struct{}
}

var _ provider.Provider = (*Provider)(nil)

// New creates a tiered provider. A nil selector uses the default policy.
func New(candidates func() []provider.Provider, selector provider.Selector) *Provider {
	if selector == nil {
		selector = provider.NewRankSelector(provider.DefaultPolicy())
	}
	return &Provider{
		candidates: candidates,
		selector:   selector,
		log:        logger.Get("tiered"),
		stores:     make(map[*Store]struct{}),
	}
}

func (p *Provider) Name() string { return Name }

// Rank returns 2 for {heap, disk} or {heap, clustered} and 0 otherwise.
func (p *Provider) Rank(required resource.Set, _ []provider.ServiceConfig) int {
	if required.Is(resource.Heap, resource.Disk) || required.Is(resource.Heap, resource.Clustered) {
		return Rank
	}
	return 0
}

// CreateStore selects and creates both tiers. If the authority tier cannot
// be created the caching tier is released.
func (p *Provider) CreateStore(ctx context.Context, cfg store.Config, configs ...provider.ServiceConfig) (store.Store, error) {
	if p.Rank(cfg.Resources, configs) <= 0 {
		return nil, errors.InvalidInput("resources", fmt.Sprintf("tiered provider cannot serve %s", cfg.Resources))
	}

	caching, err := p.createTier(ctx, cfg, resource.NewSet(resource.Heap), configs)
	if err != nil {
		return nil, fmt.Errorf("caching tier: %w", err)
	}
	authority, err := p.createTier(ctx, cfg, cfg.Resources.Without(resource.Heap), configs)
	if err != nil {
		if rerr := caching.provider.ReleaseStore(ctx, caching.store); rerr != nil {
			p.log.Warn("release caching tier", logger.MergeError(logger.Fields(logger.FieldCache, cfg.Name), rerr))
		}
		return nil, fmt.Errorf("authority tier: %w", err)
	}

	s := &Store{name: cfg.Name, caching: caching, authority: authority}
	p.mu.Lock()
	p.stores[s] = struct{}{}
	p.mu.Unlock()
	return s, nil
}

func (p *Provider) createTier(ctx context.Context, cfg store.Config, required resource.Set, configs []provider.ServiceConfig) (tier, error) {
	out := p.selector.Select(ctx, p.others(), provider.NewDescriptor(required, configs...))
	chosen, err := out.Unwrap()
	if err != nil {
		return tier{}, err
	}
	tierCfg := cfg
	tierCfg.Resources = required
	s, err := chosen.CreateStore(ctx, tierCfg, configs...)
	if err != nil {
		return tier{}, err
	}
	return tier{store: s, provider: chosen}, nil
}

// others returns the candidates without this provider.
func (p *Provider) others() []provider.Provider {
	all := p.candidates()
	out := make([]provider.Provider, 0, len(all))
	for _, c := range all {
		if c != provider.Provider(p) {
			out = append(out, c)
		}
	}
	return out
}

// InitStore initializes the authority tier, then the caching tier.
func (p *Provider) InitStore(ctx context.Context, s store.Store) error {
	ts, err := p.own(s)
	if err != nil {
		return err
	}
	if err := ts.authority.provider.InitStore(ctx, ts.authority.store); err != nil {
		return fmt.Errorf("authority tier: %w", err)
	}
	if err := ts.caching.provider.InitStore(ctx, ts.caching.store); err != nil {
		return fmt.Errorf("caching tier: %w", err)
	}
	p.log.Debug("tiered store ready", logger.Fields(
		logger.FieldCache, ts.name,
		"caching", ts.CachingProvider(),
		"authority", ts.AuthorityProvider(),
	))
	return nil
}

// ReleaseStore releases both tiers, caching first, and reports every failure.
func (p *Provider) ReleaseStore(ctx context.Context, s store.Store) error {
	ts, err := p.own(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.stores, ts)
	p.mu.Unlock()

	var result error
	if err := ts.caching.provider.ReleaseStore(ctx, ts.caching.store); err != nil {
		result = multierror.Append(result, fmt.Errorf("caching tier: %w", err))
	}
	if err := ts.authority.provider.ReleaseStore(ctx, ts.authority.store); err != nil {
		result = multierror.Append(result, fmt.Errorf("authority tier: %w", err))
	}
	return result
}

func (p *Provider) own(s store.Store) (*Store, error) {
	ts, ok := s.(*Store)
	if !ok {
		return nil, errors.InvalidInput("store", "not created by the tiered provider")
	}
	p.mu.Lock()
	_, live := p.stores[ts]
	p.mu.Unlock()
	if !live {
		return nil, errors.StoreClosed(ts.name)
	}
	return ts, nil
}

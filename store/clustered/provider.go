package clustered

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resilience"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

// Name is the provider name used for registration and ServiceConfig matching.
const Name = "clustered"

// Options overrides the key prefix for one store.
type Options struct {
	Prefix string `mapstructure:"prefix"`
}

func (Options) ServiceName() string { return Name }

// Provider creates Redis-backed stores. It declines every request until
// Start has connected it, and while its circuit breaker is open.
type Provider struct {
	cfg     Config
	log     *logger.Logger
	client  *Client
	owned   bool
	ready   atomic.Bool
	breaker *resilience.CircuitBreaker

	mu     sync.Mutex
	stores map[*Store]struct{}
}

var (
	_ provider.Provider  = (*Provider)(nil)
	_ provider.Startable = (*Provider)(nil)
	_ provider.Stoppable = (*Provider)(nil)
)

// Option configures a Provider.
type Option func(*Provider)

// WithClient uses an existing client instead of dialing cfg.Addr. The
// provider does not close a client it did not create.
func WithClient(c *Client) Option {
	return func(p *Provider) { p.client = c }
}

// New creates a clustered provider.
func New(cfg Config, opts ...Option) *Provider {
	cfg.ApplyDefaults()
	p := &Provider{
		cfg:    cfg,
		log:    logger.Get("clustered"),
		stores: make(map[*Store]struct{}),
	}
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = func(name string, from, to resilience.State) {
			p.log.Warn("circuit state changed", logger.Fields(
				"circuit", name,
				"from", from.String(),
				"to", to.String(),
			))
		}
	}
	p.breaker = resilience.NewCircuitBreaker("redis:"+cfg.Prefix, cfg.Breaker)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Factory builds a provider from "addr", "password", "db" and "prefix"
// entries.
func Factory(cfg map[string]any) (provider.Provider, error) {
	c := Config{Enabled: true}
	if v, ok := cfg["addr"].(string); ok {
		c.Addr = v
	}
	if v, ok := cfg["password"].(string); ok {
		c.Password = v
	}
	if v, ok := cfg["db"].(int); ok {
		c.DB = v
	}
	if v, ok := cfg["prefix"].(string); ok {
		c.Prefix = v
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, errors.InvalidInput("redis", err.Error())
	}
	return New(c), nil
}

func (p *Provider) Name() string { return Name }

// Start connects the client and verifies the server answers.
func (p *Provider) Start(ctx context.Context) error {
	if p.client == nil {
		c, err := NewClient(p.cfg, p.log)
		if err != nil {
			return err
		}
		p.client, p.owned = c, true
	}
	if err := p.client.Ping(ctx); err != nil {
		if p.owned {
			_ = p.client.Close()
			p.client, p.owned = nil, false
		}
		return err
	}
	p.ready.Store(true)
	p.log.Info("clustered provider connected", logger.Fields("prefix", p.cfg.Prefix))
	return nil
}

// Stop closes the client if the provider created it. A later Start dials
// a new one.
func (p *Provider) Stop(context.Context) error {
	p.ready.Store(false)
	if !p.owned {
		return nil
	}
	err := p.client.Close()
	p.client, p.owned = nil, false
	return err
}

// Breaker returns the circuit breaker shared by every store of p.
func (p *Provider) Breaker() *resilience.CircuitBreaker { return p.breaker }

// Rank returns 1 for exactly {clustered} while connected with a closed or
// half-open circuit, and 0 otherwise.
func (p *Provider) Rank(required resource.Set, _ []provider.ServiceConfig) int {
	if p.ready.Load() && !p.breaker.Open() && required.Is(resource.Clustered) {
		return 1
	}
	return 0
}

func (p *Provider) CreateStore(_ context.Context, cfg store.Config, configs ...provider.ServiceConfig) (store.Store, error) {
	if !p.ready.Load() {
		return nil, errors.ConnectionFailed("redis")
	}
	if cfg.Name == "" {
		return nil, errors.MissingField("name")
	}
	prefix := p.cfg.Prefix
	if opts, ok := provider.FindConfig[Options](configs); ok && opts.Prefix != "" {
		prefix = opts.Prefix
	}

	s := newStore(p.client.Unwrap(), prefix, cfg, p.breaker, p.cfg.Retry)
	p.mu.Lock()
	p.stores[s] = struct{}{}
	p.mu.Unlock()
	return s, nil
}

// InitStore checks the server is still reachable.
func (p *Provider) InitStore(ctx context.Context, s store.Store) error {
	cs, err := p.own(s)
	if err != nil {
		return err
	}
	if err := p.client.Ping(ctx); err != nil {
		return err
	}
	p.log.Debug("clustered store ready", logger.Fields(
		logger.FieldCache, cs.name,
		"store_id", cs.id,
		"namespace", cs.namespace,
	))
	return nil
}

// ReleaseStore detaches the store. Entries stay on the server.
func (p *Provider) ReleaseStore(_ context.Context, s store.Store) error {
	cs, err := p.own(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.stores, cs)
	p.mu.Unlock()
	cs.closed.Store(true)
	return nil
}

func (p *Provider) own(s store.Store) (*Store, error) {
	cs, ok := s.(*Store)
	if !ok {
		return nil, errors.InvalidInput("store", "not created by the clustered provider")
	}
	p.mu.Lock()
	_, live := p.stores[cs]
	p.mu.Unlock()
	if !live {
		return nil, errors.StoreClosed(cs.name)
	}
	return cs, nil
}

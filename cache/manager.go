package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/kbukum/cachekit/component"
	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/observability"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/store/clustered"
	"github.com/kbukum/cachekit/store/disk"
	"github.com/kbukum/cachekit/store/heap"
	"github.com/kbukum/cachekit/store/tiered"
)

// ComponentName is the name the Manager registers under.
const ComponentName = "cache"

// Manager builds the configured caches on Start and releases them on Stop.
type Manager struct {
	cfg       Config
	registry  *provider.Registry
	providers *provider.Manager
	log       *logger.Logger
	metrics   *observability.Metrics
	diskFs    afero.Fs
	redis     *clustered.Client
	exporter  *observability.Exporter

	mu      sync.RWMutex
	caches  []*Cache
	byName  map[string]*Cache
	started bool
}

var (
	_ component.Component   = (*Manager)(nil)
	_ component.Describable = (*Manager)(nil)
)

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry replaces the built-in providers with reg.
func WithRegistry(reg *provider.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics records selection and store metrics on metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithDiskFs sets the filesystem used by the built-in disk provider.
func WithDiskFs(fs afero.Fs) Option {
	return func(m *Manager) { m.diskFs = fs }
}

// WithRedisClient makes the built-in clustered provider use client.
func WithRedisClient(client *clustered.Client) Option {
	return func(m *Manager) { m.redis = client }
}

// NewManager creates a Manager for cfg. Defaults are applied to a copy of
// cfg before it is validated.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:    cfg,
		log:    logger.Get(ComponentName),
		diskFs: afero.NewOsFs(),
		byName: make(map[string]*Cache),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil && cfg.Metrics {
		metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return nil, err
		}
		m.metrics = metrics
	}

	selector := m.selector()
	if m.registry == nil {
		reg, err := m.defaultRegistry(selector)
		if err != nil {
			return nil, err
		}
		m.registry = reg
	}

	managerOpts := []provider.ManagerOption{provider.WithManagerLogger(m.log)}
	if m.metrics != nil {
		managerOpts = append(managerOpts, provider.WithStoreMetrics(m.metrics))
	}
	m.providers = provider.NewManager(m.registry, selector, managerOpts...)
	return m, nil
}

func (m *Manager) selector() provider.Selector {
	mws := []provider.Middleware{provider.WithLogging(m.log)}
	if m.metrics != nil {
		mws = append(mws, provider.WithMetrics(m.metrics))
	}
	if m.cfg.Tracing {
		mws = append(mws, provider.WithTracing(m.cfg.Name))
	}
	return provider.Chain(mws...)(provider.NewRankSelector(m.cfg.Selection))
}

// defaultRegistry registers heap, disk, clustered (when enabled) and
// tiered, in that order, along with their factories.
func (m *Manager) defaultRegistry(selector provider.Selector) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	reg.RegisterFactory(heap.Name, heap.Factory)
	reg.RegisterFactory(disk.Name, disk.Factory)
	reg.RegisterFactory(clustered.Name, clustered.Factory)

	providers := []provider.Provider{
		heap.New(),
		disk.New(m.cfg.Disk, disk.WithFs(m.diskFs)),
	}
	if m.cfg.Redis.Enabled || m.redis != nil {
		var opts []clustered.Option
		if m.redis != nil {
			opts = append(opts, clustered.WithClient(m.redis))
		}
		providers = append(providers, clustered.New(m.cfg.Redis, opts...))
	}
	providers = append(providers, tiered.New(reg.Snapshot, selector))

	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Name returns the component name.
func (m *Manager) Name() string { return ComponentName }

// Registry returns the providers caches are selected from.
func (m *Manager) Registry() *provider.Registry { return m.registry }

// Start starts the providers and builds every configured cache. If any
// cache cannot be built, the ones already built are released and Start
// fails naming the cache and its resources.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("cache manager already started")
	}
	if err := m.export(ctx); err != nil {
		return err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanCacheStart)
	defer span.End()

	if err := m.registry.StartAll(ctx); err != nil {
		observability.SetSpanError(ctx, err)
		if serr := m.registry.StopAll(ctx); serr != nil {
			err = multierror.Append(err, serr)
		}
		if serr := m.stopExport(ctx); serr != nil {
			err = multierror.Append(err, serr)
		}
		return fmt.Errorf("start providers: %w", err)
	}

	for _, def := range m.cfg.Caches {
		c, err := m.build(ctx, def)
		if err != nil {
			m.log.Error("cache build failed", logger.MergeError(logger.Fields(
				logger.FieldCache, def.Name,
				logger.FieldResources, def.Resources,
			), err))
			observability.SetSpanError(ctx, err)
			if rerr := m.releaseAll(ctx); rerr != nil {
				err = multierror.Append(err, rerr)
			}
			if serr := m.stopExport(ctx); serr != nil {
				err = multierror.Append(err, serr)
			}
			return fmt.Errorf("cache %s [%s]: %w", def.Name, strings.Join(def.Resources, ", "), err)
		}
		m.caches = append(m.caches, c)
		m.byName[c.name] = c
	}

	m.started = true
	m.log.Info("caches ready", logger.Fields("count", len(m.caches)))
	return nil
}

func (m *Manager) build(ctx context.Context, def Definition) (*Cache, error) {
	cfg, configs, err := def.StoreConfig()
	if err != nil {
		return nil, err
	}
	h, err := m.providers.CreateStore(logger.ContextWithCacheName(ctx, def.Name), cfg, configs...)
	if err != nil {
		return nil, err
	}
	return &Cache{name: def.Name, resources: cfg.Resources, handle: h}, nil
}

// Stop releases every cache in reverse creation order and stops the
// providers. All failures are reported.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	err := m.releaseAll(ctx)
	if serr := m.stopExport(ctx); serr != nil {
		err = multierror.Append(err, serr)
	}
	return err
}

// export starts OTLP export when an endpoint is configured and tracing or
// metrics is on.
func (m *Manager) export(ctx context.Context) error {
	tel := m.cfg.Telemetry
	if !tel.Enabled() || (!m.cfg.Tracing && !m.cfg.Metrics) {
		return nil
	}
	exp, err := observability.Export(ctx, m.cfg.Name, tel, m.cfg.Tracing, m.cfg.Metrics)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	m.exporter = exp
	return nil
}

// stopExport flushes and stops the exporter started by export.
func (m *Manager) stopExport(ctx context.Context) error {
	exp := m.exporter
	m.exporter = nil
	if err := exp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func (m *Manager) releaseAll(ctx context.Context) error {
	var result error
	for i := len(m.caches) - 1; i >= 0; i-- {
		c := m.caches[i]
		if err := m.providers.ReleaseStore(ctx, c.handle); err != nil {
			result = multierror.Append(result, fmt.Errorf("cache %s: %w", c.name, err))
		}
	}
	m.caches = nil
	m.byName = make(map[string]*Cache)

	if err := m.registry.StopAll(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Health reports unhealthy before Start and degraded when any cache fails
// to report its size.
func (m *Manager) Health(ctx context.Context) component.Health {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := component.Health{Name: ComponentName, Status: component.StatusHealthy}
	if !m.started {
		h.Status, h.Message = component.StatusUnhealthy, "not started"
		return h
	}
	var failing []string
	for _, c := range m.caches {
		if _, err := c.Len(ctx); err != nil {
			failing = append(failing, c.name)
		}
	}
	if len(failing) > 0 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%d of %d caches failing: %s", len(failing), len(m.caches), strings.Join(failing, ", "))
		return h
	}
	h.Message = fmt.Sprintf("%d caches", len(m.caches))
	return h
}

// Describe summarizes which provider backs each cache.
func (m *Manager) Describe() component.Description {
	m.mu.RLock()
	defer m.mu.RUnlock()
	parts := make([]string, 0, len(m.caches))
	for _, c := range m.caches {
		parts = append(parts, c.name+"="+c.Provider())
	}
	sort.Strings(parts)
	return component.Description{
		Name:    "Caches",
		Type:    "cache",
		Details: strings.Join(parts, " "),
	}
}

// Cache returns the started cache with the given name.
func (m *Manager) Cache(name string) (*Cache, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byName[name]
	if !ok {
		return nil, errors.NotFound("cache", name)
	}
	return c, nil
}

// Caches returns the started caches in creation order.
func (m *Manager) Caches() []*Cache {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Cache, len(m.caches))
	copy(out, m.caches)
	return out
}

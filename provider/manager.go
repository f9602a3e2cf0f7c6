package provider

import (
	"context"
	"fmt"

	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/observability"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

// Handle ties a store to the provider that created it.
type Handle struct {
	Store    store.Store
	Provider Provider
	// Rank is the rank the provider reported when it was selected.
	Rank int
}

// Manager selects providers from a Registry and drives the store lifecycle
// of the winner.
type Manager struct {
	registry *Registry
	selector Selector
	metrics  *observability.Metrics
	log      *logger.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used for lifecycle events.
func WithManagerLogger(log *logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithStoreMetrics records live store counts on metrics.
func WithStoreMetrics(metrics *observability.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a Manager. A nil selector uses the default policy.
func NewManager(registry *Registry, selector Selector, opts ...ManagerOption) *Manager {
	if selector == nil {
		selector = NewRankSelector(DefaultPolicy())
	}
	m := &Manager{
		registry: registry,
		selector: selector,
		log:      logger.Get("provider"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the directory the manager selects from.
func (m *Manager) Registry() *Registry { return m.registry }

// Select chooses a provider for the required resources from a registry snapshot.
func (m *Manager) Select(ctx context.Context, required resource.Set, configs ...ServiceConfig) (Provider, error) {
	out := m.selector.Select(ctx, m.registry.Snapshot(), NewDescriptor(required, configs...))
	return out.Unwrap()
}

// CreateStore selects a provider for cfg.Resources, then creates and
// initializes a store with it. A store whose initialization fails is
// released before the error is returned.
func (m *Manager) CreateStore(ctx context.Context, cfg store.Config, configs ...ServiceConfig) (h *Handle, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanStoreCreate)
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()
	observability.SetSpanAttribute(ctx, observability.AttrCacheName, cfg.Name)

	out := m.selector.Select(ctx, m.registry.Snapshot(), NewDescriptor(cfg.Resources, configs...))
	p, err := out.Unwrap()
	if err != nil {
		return nil, err
	}
	observability.SetSpanAttribute(ctx, AttrProvider, p.Name())

	s, err := p.CreateStore(ctx, cfg, configs...)
	if err != nil {
		return nil, fmt.Errorf("create store %s with provider %s: %w", cfg.Name, p.Name(), err)
	}
	if err := p.InitStore(ctx, s); err != nil {
		if rerr := p.ReleaseStore(ctx, s); rerr != nil {
			m.log.Warn("release after failed init", logger.Fields(
				logger.FieldCache, cfg.Name,
				logger.FieldProvider, p.Name(),
				logger.FieldError, rerr.Error(),
			))
		}
		return nil, fmt.Errorf("init store %s with provider %s: %w", cfg.Name, p.Name(), err)
	}

	if m.metrics != nil {
		m.metrics.RecordStoreCreated(ctx, p.Name())
	}
	m.log.Info("store created", logger.Fields(
		logger.FieldCache, cfg.Name,
		logger.FieldProvider, p.Name(),
		logger.FieldRank, out.Rank,
		logger.FieldResources, cfg.Resources.Names(),
	))
	return &Handle{Store: s, Provider: p, Rank: out.Rank}, nil
}

// ReleaseStore hands the store back to the provider that created it.
func (m *Manager) ReleaseStore(ctx context.Context, h *Handle) error {
	if h == nil || h.Store == nil {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanStoreRelease)
	defer span.End()
	observability.SetSpanAttribute(ctx, AttrProvider, h.Provider.Name())

	if err := h.Provider.ReleaseStore(ctx, h.Store); err != nil {
		err = fmt.Errorf("release store with provider %s: %w", h.Provider.Name(), err)
		observability.SetSpanError(ctx, err)
		return err
	}
	if m.metrics != nil {
		m.metrics.RecordStoreReleased(ctx, h.Provider.Name())
	}
	return nil
}

package disk

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

// Name is the provider name used for registration and ServiceConfig matching.
const Name = "disk"

// Options overrides where a store keeps its files. Dir is relative to the
// provider root unless absolute.
type Options struct {
	Dir string `mapstructure:"dir"`
}

func (Options) ServiceName() string { return Name }

// Config configures the disk provider.
type Config struct {
	// Root is the directory stores are created under.
	Root string `yaml:"root" mapstructure:"root" validate:"required"`
	// PurgeOnRelease deletes a store's files when it is released.
	PurgeOnRelease bool `yaml:"purge_on_release" mapstructure:"purge_on_release"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = filepath.Join(".", "data", "cachekit")
	}
}

// Provider creates disk stores on an afero filesystem.
type Provider struct {
	fs  afero.Fs
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	stores map[*Store]struct{}
}

var _ provider.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(p *Provider) { p.fs = fs }
}

// New creates a disk provider rooted at cfg.Root.
func New(cfg Config, opts ...Option) *Provider {
	cfg.ApplyDefaults()
	p := &Provider{
		fs:     afero.NewOsFs(),
		cfg:    cfg,
		log:    logger.Get("disk"),
		stores: make(map[*Store]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Factory builds a provider from a "root" and optional "purge_on_release"
// entry.
func Factory(cfg map[string]any) (provider.Provider, error) {
	var c Config
	if root, ok := cfg["root"].(string); ok {
		c.Root = root
	}
	if purge, ok := cfg["purge_on_release"].(bool); ok {
		c.PurgeOnRelease = purge
	}
	return New(c), nil
}

func (p *Provider) Name() string { return Name }

// Rank returns 1 for exactly {disk} and 0 otherwise.
func (p *Provider) Rank(required resource.Set, _ []provider.ServiceConfig) int {
	if required.Is(resource.Disk) {
		return 1
	}
	return 0
}

func (p *Provider) CreateStore(_ context.Context, cfg store.Config, configs ...provider.ServiceConfig) (store.Store, error) {
	if cfg.Name == "" {
		return nil, errors.MissingField("name")
	}
	dir := filepath.Join(p.cfg.Root, cfg.Name)
	if opts, ok := provider.FindConfig[Options](configs); ok && opts.Dir != "" {
		dir = opts.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(p.cfg.Root, dir)
		}
	}

	s := newStore(p.fs, dir, cfg)
	p.mu.Lock()
	p.stores[s] = struct{}{}
	p.mu.Unlock()
	return s, nil
}

// InitStore creates the store directory.
func (p *Provider) InitStore(_ context.Context, s store.Store) error {
	ds, err := p.own(s)
	if err != nil {
		return err
	}
	if err := p.fs.MkdirAll(ds.dir, 0o755); err != nil {
		return errors.StoreFailure(ds.name, "init", err)
	}
	p.log.Debug("disk store ready", logger.Fields(
		logger.FieldCache, ds.name,
		"store_id", ds.id,
		"dir", ds.dir,
	))
	return nil
}

func (p *Provider) ReleaseStore(_ context.Context, s store.Store) error {
	ds, err := p.own(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.stores, ds)
	p.mu.Unlock()

	closed, err := ds.close(p.cfg.PurgeOnRelease)
	if closed {
		p.log.Debug("disk store released", logger.Fields(
			logger.FieldCache, ds.name,
			"store_id", ds.id,
			"purged", p.cfg.PurgeOnRelease,
		))
	}
	return err
}

func (p *Provider) own(s store.Store) (*Store, error) {
	ds, ok := s.(*Store)
	if !ok {
		return nil, errors.InvalidInput("store", "not created by the disk provider")
	}
	p.mu.Lock()
	_, live := p.stores[ds]
	p.mu.Unlock()
	if !live {
		return nil, errors.StoreClosed(ds.name)
	}
	return ds, nil
}

package cache

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kbukum/cachekit/config"
	"github.com/kbukum/cachekit/observability"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
	"github.com/kbukum/cachekit/store/clustered"
	"github.com/kbukum/cachekit/store/disk"
	"github.com/kbukum/cachekit/validation"
)

var cacheName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Codec names accepted in Definition.Codec.
const (
	CodecJSON  = "json"
	CodecBytes = "bytes"
)

// Definition describes one cache to build.
type Definition struct {
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	// Resources names the tiers the cache needs, e.g. [heap, disk].
	Resources  []string      `yaml:"resources" mapstructure:"resources" validate:"min=1,dive,resource"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries" validate:"gte=0"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	Codec      string        `yaml:"codec" mapstructure:"codec" validate:"omitempty,oneof=json bytes"`
	// Dir overrides the disk directory, relative to disk.root.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Prefix overrides the redis key prefix.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// ResourceSet parses Resources.
func (s Definition) ResourceSet() (resource.Set, error) {
	return resource.Parse(s.Resources...)
}

// StoreConfig builds the store.Config and auxiliary configuration passed
// to selection and store creation.
func (s Definition) StoreConfig() (store.Config, []provider.ServiceConfig, error) {
	set, err := s.ResourceSet()
	if err != nil {
		return store.Config{}, nil, err
	}
	cfg := store.Config{
		Name:       s.Name,
		Resources:  set,
		MaxEntries: s.MaxEntries,
		TTL:        s.TTL,
	}
	if s.Codec == CodecBytes {
		cfg.Codec = store.BytesCodec{}
	}

	var configs []provider.ServiceConfig
	if s.Dir != "" {
		configs = append(configs, disk.Options{Dir: s.Dir})
	}
	if s.Prefix != "" {
		configs = append(configs, clustered.Options{Prefix: s.Prefix})
	}
	return cfg, configs, nil
}

// Config is the top-level cachekit configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Selection provider.Policy  `yaml:"selection" mapstructure:"selection"`
	Disk      disk.Config      `yaml:"disk" mapstructure:"disk"`
	Redis     clustered.Config `yaml:"redis" mapstructure:"redis"`
	// Tracing and Metrics decorate selection using the global otel providers.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
	// Telemetry exports the enabled signals over OTLP/HTTP while the
	// manager runs.
	Telemetry observability.ExportConfig `yaml:"telemetry" mapstructure:"telemetry"`

	Caches []Definition `yaml:"caches" mapstructure:"caches" validate:"dive"`
}

// Load reads the configuration for serviceName, then applies defaults
// and validates it.
func Load(serviceName string, opts ...config.LoaderOption) (*Config, error) {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills empty fields in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Selection.ApplyDefaults()
	c.Disk.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
}

// Validate checks every section and the cross-field rules: unique cache
// names usable as directory names, and a redis connection for clustered caches.
func (c *Config) Validate() error {
	v := validation.New()
	if err := c.ServiceConfig.Validate(); err != nil {
		v.AddError("config", err.Error())
	}
	v.Merge("", validation.Validate(c))
	if err := c.Redis.Validate(); err != nil {
		v.AddError("redis", err.Error())
	}

	names := make([]string, len(c.Caches))
	for i, def := range c.Caches {
		names[i] = def.Name
		field := fmt.Sprintf("caches[%d]", i)
		v.Pattern(field+".name", def.Name, cacheName)
		if set, err := def.ResourceSet(); err == nil {
			v.Custom(!set.Contains(resource.Clustered) || c.Redis.Enabled,
				field+".resources", "clustered requires redis.enabled")
		}
	}
	v.Unique("caches", names)
	return v.Err()
}

package clustered

import (
	"fmt"
	"time"

	"github.com/kbukum/cachekit/resilience"
)

// Config holds Redis connection configuration.
type Config struct {
	// Enabled controls whether the provider connects at all.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the Redis server address (host:port).
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// Prefix namespaces every key written by this provider.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	MaxRetries   int `yaml:"max_retries" mapstructure:"max_retries"`

	// Timeouts are Go durations (e.g. "5s").
	DialTimeout  string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  string `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`
	PoolTimeout  string `yaml:"pool_timeout" mapstructure:"pool_timeout"`

	// Retry and Breaker guard every store command.
	Retry   resilience.RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Breaker resilience.BreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "cachekit"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
	c.Retry.ApplyDefaults()
	c.Breaker.ApplyDefaults()
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be > 0")
	}
	for name, v := range map[string]string{
		"dial_timeout":  c.DialTimeout,
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	if c.PoolTimeout != "" {
		if _, err := time.ParseDuration(c.PoolTimeout); err != nil {
			return fmt.Errorf("invalid pool_timeout %q: %w", c.PoolTimeout, err)
		}
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

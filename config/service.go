package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/cachekit/logger"
)

// Environments accepted by ServiceConfig.Validate.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every cachekit deployment needs.
// Embed it in larger config structs:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Caches []cache.Definition `yaml:"caches" mapstructure:"caches"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
		if c.Logging.Level == "" {
			c.Logging.Level = "debug"
		}
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

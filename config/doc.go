// Package config loads cachekit configuration with Viper.
//
// LoadConfig reads config.yml from the standard locations (./cmd/<service>,
// ./config, .), then a .env file parsed with godotenv, then the process
// environment. An UPPER_SNAKE variable is bound to every nested key it may
// address; with WithEnvPrefix("cachekit"), CACHEKIT_SELECTION_TIE_BREAK=strict
// sets selection.tie_break.
//
//	var cfg cache.Config
//	if err := config.LoadConfig("cachekit", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config

package clustered

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
)

// Client wraps a go-redis client shared by every store of a provider.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient dials nothing; go-redis connects lazily. Call Ping to verify
// the server is reachable.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is disabled")
	}

	dialTimeout, _ := time.ParseDuration(cfg.DialTimeout)
	readTimeout, _ := time.ParseDuration(cfg.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.WriteTimeout)

	opts := &goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	if cfg.PoolTimeout != "" {
		if d, err := time.ParseDuration(cfg.PoolTimeout); err == nil {
			opts.PoolTimeout = d
		}
	}

	log.Info("redis client created", map[string]interface{}{
		"addr":      cfg.Addr,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})
	return &Client{rdb: goredis.NewClient(opts), log: log}, nil
}

// WrapClient adopts an existing go-redis client.
func WrapClient(rdb *goredis.Client, log *logger.Logger) *Client {
	return &Client{rdb: rdb, log: log}
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	pong, err := c.rdb.Ping(ctx).Result()
	if err != nil {
		return errors.ConnectionFailed("redis").WithCause(err)
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected redis ping response: %s", pong)
	}
	return nil
}

// Close closes the connection pool. Safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Info("closing redis connection")
	return c.rdb.Close()
}

// Unwrap returns the underlying go-redis client.
func (c *Client) Unwrap() *goredis.Client {
	return c.rdb
}

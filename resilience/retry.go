package resilience

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kbukum/cachekit/errors"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// BackoffFactor multiplies the delay after each attempt.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter randomizes each delay by up to this fraction (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`

	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns the defaults applied by ApplyDefaults.
func DefaultRetryConfig() RetryConfig {
	var c RetryConfig
	c.ApplyDefaults()
	return c
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 50 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Validate checks the numeric bounds.
func (c *RetryConfig) Validate() error {
	if c.BackoffFactor < 1 {
		return fmt.Errorf("backoff_factor must be >= 1, got %g", c.BackoffFactor)
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("jitter must be within [0, 1], got %g", c.Jitter)
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff %s is below initial_backoff %s", c.MaxBackoff, c.InitialBackoff)
	}
	return nil
}

// DefaultRetryIf retries AppErrors marked retryable. Context errors and
// open circuits are never retried.
func DefaultRetryIf(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.IsRetryable(err)
}

// Retry calls fn until it succeeds, RetryIf rejects its error, or
// MaxAttempts is reached. The last error is returned.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	cfg.ApplyDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !cfg.RetryIf(err) || attempt == cfg.MaxAttempts {
			break
		}

		backoff := Backoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// RetryFunc is Retry for functions that return only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	_, err := Retry(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Backoff returns the delay after the given attempt:
// InitialBackoff * BackoffFactor^(attempt-1), jittered and capped.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	if d < 0 {
		d = float64(cfg.InitialBackoff)
	}
	return time.Duration(d)
}

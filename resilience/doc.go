// Package resilience wraps calls to remote store backends.
//
//   - CircuitBreaker fails fast with a CIRCUIT_OPEN AppError after
//     repeated failures and lets trial calls through again after a timeout.
//   - Retry repeats calls that fail with a retryable AppError, using
//     exponential backoff with jitter.
//
// The two compose with the breaker inside the retry loop, so an open
// circuit ends the loop immediately:
//
//	cb := resilience.NewCircuitBreaker("redis", resilience.BreakerConfig{})
//	err := resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
//	    return cb.Execute(func() error {
//	        return ping(ctx)
//	    })
//	})
package resilience

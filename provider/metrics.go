package provider

import (
	"context"
	"time"

	"github.com/kbukum/cachekit/observability"
)

// WithMetrics returns a Middleware that records selection count, duration,
// ranked candidates and failures on the given instruments.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(inner Selector) Selector {
		return SelectorFunc(func(ctx context.Context, candidates []Provider, d Descriptor) Outcome {
			start := time.Now()
			out := inner.Select(ctx, candidates, d)

			winner := ""
			if out.ok() {
				winner = out.Provider.Name()
			} else {
				metrics.RecordError(ctx, out.Kind.String(), "provider")
			}
			metrics.RecordSelection(ctx, out.Kind.String(), winner, len(out.Ranks), time.Since(start))
			return out
		})
	}
}

package provider

import (
	"context"
	"time"

	"github.com/kbukum/cachekit/logger"
)

// WithLogging returns a Middleware that logs each selection: debug on
// success, warn with every candidate's rank on failure.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Selector) Selector {
		return SelectorFunc(func(ctx context.Context, candidates []Provider, d Descriptor) Outcome {
			start := time.Now()
			out := inner.Select(ctx, candidates, d)

			fields := map[string]interface{}{
				logger.FieldResources:  d.Required().Names(),
				logger.FieldCandidates: len(candidates),
				logger.FieldOutcome:    out.Kind.String(),
				logger.FieldDuration:   time.Since(start).Milliseconds(),
			}
			l := log.WithContext(ctx)
			if out.ok() {
				fields[logger.FieldProvider] = out.Provider.Name()
				fields[logger.FieldRank] = out.Rank
				l.Debug("store provider selected", fields)
				return out
			}

			fields["ranks"] = out.rankMap()
			l.Warn("store provider selection failed", logger.MergeError(fields, out.Err()))
			return out
		})
	}
}

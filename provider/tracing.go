package provider

import (
	"context"

	"github.com/kbukum/cachekit/observability"
)

// Span attribute keys set by WithTracing.
const (
	AttrResources  = "cachekit.resources"
	AttrCandidates = "cachekit.candidates"
	AttrOutcome    = "cachekit.outcome"
	AttrProvider   = "cachekit.provider"
	AttrRank       = "cachekit.rank"
)

// WithTracing returns a Middleware that wraps each selection in a span
// named "{serviceName}.select".
func WithTracing(serviceName string) Middleware {
	return func(inner Selector) Selector {
		return SelectorFunc(func(ctx context.Context, candidates []Provider, d Descriptor) Outcome {
			ctx, span := observability.StartSpan(ctx, serviceName+".select")
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrServiceName, serviceName)
			observability.SetSpanAttribute(ctx, AttrResources, d.Required().Names())
			observability.SetSpanAttribute(ctx, AttrCandidates, len(candidates))

			out := inner.Select(ctx, candidates, d)

			observability.SetSpanAttribute(ctx, AttrOutcome, out.Kind.String())
			if out.ok() {
				observability.SetSpanAttribute(ctx, AttrProvider, out.Provider.Name())
				observability.SetSpanAttribute(ctx, AttrRank, out.Rank)
			} else {
				observability.SetSpanError(ctx, out.Err())
			}
			return out
		})
	}
}

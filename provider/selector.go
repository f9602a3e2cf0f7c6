package provider

import "context"

// Selector picks a provider from an ordered candidate list.
type Selector interface {
	Select(ctx context.Context, candidates []Provider, d Descriptor) Outcome
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, candidates []Provider, d Descriptor) Outcome

// Select calls f.
func (f SelectorFunc) Select(ctx context.Context, candidates []Provider, d Descriptor) Outcome {
	return f(ctx, candidates, d)
}

// RankSelector runs rank-based selection under a fixed policy.
type RankSelector struct {
	Policy Policy
}

// NewRankSelector returns a RankSelector with defaults applied to policy.
func NewRankSelector(policy Policy) *RankSelector {
	policy.ApplyDefaults()
	return &RankSelector{Policy: policy}
}

// Select ranks every candidate and applies the policy.
func (s *RankSelector) Select(_ context.Context, candidates []Provider, d Descriptor) Outcome {
	return s.Policy.Select(candidates, d)
}

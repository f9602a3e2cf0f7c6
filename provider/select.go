package provider

import (
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/cachekit/resource"
)

// Select picks the best candidate for d.
//
// Every candidate is ranked exactly once, even when an early one already
// looks optimal, because Rank may have observable side effects. Among the
// eligible candidates holding the maximum rank, the first in input order
// wins unless the policy demands a strict tie-break. The default policy
// admits only positive ranks.
func Select(candidates []Provider, d Descriptor, opts ...Option) Outcome {
	policy := DefaultPolicy()
	for _, opt := range opts {
		opt(&policy)
	}
	policy.ApplyDefaults()
	return policy.Select(candidates, d)
}

// SelectProvider is the (Provider, error) form of Select with the default policy.
func SelectProvider(candidates []Provider, required resource.Set, configs ...ServiceConfig) (Provider, error) {
	return Select(candidates, NewDescriptor(required, configs...)).Unwrap()
}

// Select runs selection under p. The receiver is used as given; call
// ApplyDefaults first when it may have empty fields.
func (p Policy) Select(candidates []Provider, d Descriptor) Outcome {
	out := Outcome{Required: d.Required()}
	if len(candidates) == 0 {
		out.Kind = NoCandidate
		return out
	}

	out.Ranks = p.rankAll(candidates, d)

	best := -1
	for i, r := range out.Ranks {
		if r.Provider == nil || !p.eligible(r.Rank) {
			continue
		}
		// strictly greater: an equal rank never displaces an earlier candidate
		if best < 0 || r.Rank > out.Ranks[best].Rank {
			best = i
		}
	}
	if best < 0 {
		out.Kind = NoEligibleProvider
		return out
	}

	top := out.Ranks[best].Rank
	if p.TieBreak == TieBreakStrict {
		var tied []Provider
		for _, r := range out.Ranks {
			if r.Provider != nil && r.Rank == top {
				tied = append(tied, r.Provider)
			}
		}
		if len(tied) > 1 {
			out.Kind = AmbiguousTie
			out.Rank = top
			out.Tied = tied
			return out
		}
	}

	out.Kind = Selected
	out.Provider = out.Ranks[best].Provider
	out.Rank = top
	return out
}

// rankAll ranks every candidate once and returns the results in input
// order. Nil candidates are recorded with rank 0 and never called.
func (p Policy) rankAll(candidates []Provider, d Descriptor) []Ranked {
	ranks := make([]Ranked, len(candidates))
	required := d.Required()

	rankOne := func(i int) {
		c := candidates[i]
		ranks[i] = Ranked{Index: i, Provider: c}
		if c != nil {
			ranks[i].Rank = c.Rank(required, d.Configs())
		}
	}

	if p.Parallelism <= 1 || len(candidates) < 2 {
		for i := range candidates {
			rankOne(i)
		}
		return ranks
	}

	// Each goroutine writes only its own slot, so input order survives
	// regardless of completion order.
	var g errgroup.Group
	g.SetLimit(p.Parallelism)
	for i := range candidates {
		g.Go(func() error {
			rankOne(i)
			return nil
		})
	}
	_ = g.Wait()
	return ranks
}

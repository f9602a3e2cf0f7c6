package provider

import (
	"fmt"

	"github.com/kbukum/cachekit/validation"
)

// TieBreak decides between eligible providers sharing the top rank.
type TieBreak string

const (
	// TieBreakFirst picks the earliest candidate in input order.
	TieBreakFirst TieBreak = "first"
	// TieBreakStrict refuses to pick and reports AmbiguousTie.
	TieBreakStrict TieBreak = "strict"
)

// Eligibility decides which ranks may win.
type Eligibility string

const (
	// EligibilityPositive admits only ranks > 0.
	EligibilityPositive Eligibility = "positive"
	// EligibilityNonNegative admits ranks >= 0, so a zero rank can win when nothing beats it.
	EligibilityNonNegative Eligibility = "non_negative"
)

// Policy configures selection.
type Policy struct {
	TieBreak    TieBreak    `yaml:"tie_break" mapstructure:"tie_break" json:"tie_break" validate:"omitempty,oneof=first strict"`
	Eligibility Eligibility `yaml:"eligibility" mapstructure:"eligibility" json:"eligibility" validate:"omitempty,oneof=positive non_negative"`
	// Parallelism bounds concurrent Rank calls. 0 or 1 ranks sequentially.
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism" json:"parallelism" validate:"gte=0,lte=256"`
}

// DefaultPolicy returns first-registered-wins with a strictly positive rank gate.
func DefaultPolicy() Policy {
	return Policy{TieBreak: TieBreakFirst, Eligibility: EligibilityPositive}
}

// ApplyDefaults fills empty fields.
func (p *Policy) ApplyDefaults() {
	if p.TieBreak == "" {
		p.TieBreak = TieBreakFirst
	}
	if p.Eligibility == "" {
		p.Eligibility = EligibilityPositive
	}
	if p.Parallelism < 0 {
		p.Parallelism = 0
	}
}

// Validate checks the policy values.
func (p *Policy) Validate() error {
	if err := validation.Validate(p); err != nil {
		return fmt.Errorf("selection policy: %w", err)
	}
	return nil
}

func (p Policy) eligible(rank int) bool {
	if p.Eligibility == EligibilityNonNegative {
		return rank >= 0
	}
	return rank > 0
}

// Option adjusts the policy used by a single Select call.
type Option func(*Policy)

// WithPolicy replaces the whole policy.
func WithPolicy(policy Policy) Option {
	return func(p *Policy) { *p = policy }
}

// WithTieBreak sets the tie-break rule.
func WithTieBreak(t TieBreak) Option {
	return func(p *Policy) { p.TieBreak = t }
}

// WithEligibility sets the eligibility gate.
func WithEligibility(e Eligibility) Option {
	return func(p *Policy) { p.Eligibility = e }
}

// WithParallelism ranks up to n candidates concurrently.
func WithParallelism(n int) Option {
	return func(p *Policy) { p.Parallelism = n }
}

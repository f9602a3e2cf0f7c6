package provider

import (
	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/resource"
)

// Kind classifies a selection outcome.
type Kind int

const (
	// kindUnset marks an Outcome no selection produced.
	kindUnset Kind = iota
	// Selected means a single provider won.
	Selected
	// NoCandidate means the candidate list was empty.
	NoCandidate
	// NoEligibleProvider means every candidate declined.
	NoEligibleProvider
	// AmbiguousTie means several candidates tied at the top under TieBreakStrict.
	AmbiguousTie
)

func (k Kind) String() string {
	switch k {
	case Selected:
		return "selected"
	case NoCandidate:
		return "no_candidate"
	case NoEligibleProvider:
		return "no_eligible_provider"
	case AmbiguousTie:
		return "ambiguous_tie"
	default:
		return "unknown"
	}
}

// Ranked records the rank one candidate reported.
type Ranked struct {
	// Index is the candidate's position in the input sequence.
	Index    int
	Provider Provider
	Rank     int
}

// Outcome is the result of one selection call.
type Outcome struct {
	Kind Kind
	// Provider is the winning instance, exactly as passed in. Nil unless Kind is Selected.
	Provider Provider
	// Rank is the winning rank, or the tied rank for AmbiguousTie.
	Rank int
	// Required is the resource set that was asked for.
	Required resource.Set
	// Ranks holds one entry per candidate in input order.
	Ranks []Ranked
	// Tied lists the tied providers in input order when Kind is AmbiguousTie.
	Tied []Provider
}

// Err returns nil for Selected and a typed AppError otherwise.
func (o Outcome) Err() error {
	resources := o.Required.Names()
	switch o.Kind {
	case Selected:
		if !o.ok() {
			return errors.Internal(nil).WithDetail("outcome", "selected without a provider")
		}
		return nil
	case NoCandidate:
		return errors.NoCandidate(resources)
	case NoEligibleProvider:
		return errors.NoEligibleProvider(resources, o.rankMap())
	case AmbiguousTie:
		names := make([]string, len(o.Tied))
		for i, p := range o.Tied {
			names[i] = p.Name()
		}
		return errors.AmbiguousTie(resources, names, o.Rank)
	default:
		return errors.Internal(nil).WithDetail("outcome", o.Kind.String())
	}
}

// ok reports whether o carries a winner.
func (o Outcome) ok() bool { return o.Kind == Selected && o.Provider != nil }

// Unwrap returns the winner or the failure.
func (o Outcome) Unwrap() (Provider, error) {
	if err := o.Err(); err != nil {
		return nil, err
	}
	return o.Provider, nil
}

func (o Outcome) rankMap() map[string]int {
	m := make(map[string]int, len(o.Ranks))
	for _, r := range o.Ranks {
		if r.Provider != nil {
			m[r.Provider.Name()] = r.Rank
		}
	}
	return m
}

// IsNoCandidate reports whether err is a NoCandidate failure.
func IsNoCandidate(err error) bool {
	return errors.HasCode(err, errors.ErrCodeNoCandidate)
}

// IsNoEligibleProvider reports whether err is a NoEligibleProvider failure.
func IsNoEligibleProvider(err error) bool {
	return errors.HasCode(err, errors.ErrCodeNoEligibleProvider)
}

// IsAmbiguousTie reports whether err is an AmbiguousTie failure.
func IsAmbiguousTie(err error) bool {
	return errors.HasCode(err, errors.ErrCodeAmbiguousTie)
}

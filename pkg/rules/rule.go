package rules

import (
	"fmt"
	"slices"

	"github.com/MrWong99/phonoshift/pkg/environment"
	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

// SpecificRule says that Target is pronounced as Actual wherever its
// context falls inside Environment.
type SpecificRule struct {
	Target      phoneme.Phoneme         `json:"target"`
	Actual      phoneme.Phoneme         `json:"actual"`
	Environment environment.Environment `json:"environment"`
}

// IsSelf reports whether r maps a phoneme to itself.
func (r SpecificRule) IsSelf() bool { return r.Target == r.Actual }

// Equal reports exact field equality.
func (r SpecificRule) Equal(o SpecificRule) bool { return r == o }

// Applies reports whether r covers ctx. Only positive adjacency membership
// is checked.
func (r SpecificRule) Applies(ctx environment.Context) bool {
	return r.Environment.Contains(ctx.Environment(), true)
}

func (r SpecificRule) String() string {
	return fmt.Sprintf("%s -> %s [%s]", r.Target, r.Actual, r.Environment)
}

// RuleSet holds the specific rules learned for each phoneme. Phonemes are
// kept in the order they were first seen and each phoneme's rules in the
// order they were created.
type RuleSet struct {
	order []phoneme.Phoneme
	rules map[phoneme.Phoneme][]SpecificRule
}

func newRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[phoneme.Phoneme][]SpecificRule)}
}

func (rs *RuleSet) add(r SpecificRule) {
	if _, ok := rs.rules[r.Target]; !ok {
		rs.order = append(rs.order, r.Target)
	}
	rs.rules[r.Target] = append(rs.rules[r.Target], r)
}

// For returns a copy of the rules learned for p.
func (rs *RuleSet) For(p phoneme.Phoneme) []SpecificRule {
	return slices.Clone(rs.rules[p])
}

// Phonemes returns the phonemes that have at least one rule.
func (rs *RuleSet) Phonemes() []phoneme.Phoneme { return slices.Clone(rs.order) }

// All returns every rule, grouped by phoneme.
func (rs *RuleSet) All() []SpecificRule {
	var out []SpecificRule
	for _, p := range rs.order {
		out = append(out, rs.rules[p]...)
	}
	return out
}

// Len returns the total number of rules.
func (rs *RuleSet) Len() int {
	n := 0
	for _, rules := range rs.rules {
		n += len(rules)
	}
	return n
}

// match returns the rule for p that covers ctx. When several do, the one
// with the smallest environment wins, then the earliest created.
func (rs *RuleSet) match(p phoneme.Phoneme, ctx environment.Context) (SpecificRule, bool) {
	var (
		best  SpecificRule
		found bool
	)
	for _, r := range rs.rules[p] {
		if !r.Applies(ctx) {
			continue
		}
		if !found || r.Environment.Size() < best.Environment.Size() {
			best, found = r, true
		}
	}
	return best, found
}

// Signature identifies the feature-level effect of a generalized rule.
type Signature struct {
	Input  phoneme.FeatureSet
	Output phoneme.FeatureSet
}

// GeneralizedRule is a substitution over feature classes. Dimensions in
// RemainsSame keep the phoneme's own value; the others take the single
// value in Output.
type GeneralizedRule struct {
	Input       phoneme.FeatureSet      `json:"input"`
	Output      phoneme.FeatureSet      `json:"output"`
	RemainsSame phoneme.Dimensions      `json:"remains_same"`
	Environment environment.Environment `json:"environment"`

	// Support is the number of specific rules merged into this one.
	Support int `json:"support"`
}

// Signature returns the (input, output) pair of g.
func (g GeneralizedRule) Signature() Signature {
	return Signature{Input: g.Input, Output: g.Output}
}

// Apply returns the phoneme g turns p into at ctx. The second result is
// false when g does not cover p or ctx, or when the resulting feature
// combination is not a real phoneme.
func (g GeneralizedRule) Apply(p phoneme.Phoneme, ctx environment.Context) (phoneme.Phoneme, bool) {
	a, ok := p.Articulation()
	if !ok || !g.Input.Matches(a) {
		return phoneme.None, false
	}
	if !g.Environment.Contains(ctx.Environment(), true) {
		return phoneme.None, false
	}
	out := a
	if !g.RemainsSame.Has(phoneme.PlaceDimension) {
		if out.Place, ok = g.Output.Places.Only(); !ok {
			return phoneme.None, false
		}
	}
	if !g.RemainsSame.Has(phoneme.MannerDimension) {
		if out.Manner, ok = g.Output.Manners.Only(); !ok {
			return phoneme.None, false
		}
	}
	if !g.RemainsSame.Has(phoneme.VoiceDimension) {
		if out.Voice, ok = g.Output.Voices.Only(); !ok {
			return phoneme.None, false
		}
	}
	return phoneme.ByArticulation(out)
}

func (g GeneralizedRule) String() string {
	return fmt.Sprintf("(%s) -> (%s) same=%s [%s]", g.Input, g.Output, g.RemainsSame, g.Environment)
}

package rules

import (
	"errors"
	"fmt"

	"github.com/MrWong99/phonoshift/pkg/environment"
	"github.com/MrWong99/phonoshift/pkg/notation"
	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

var (
	// ErrSyllableCountMismatch is returned when a target and its observed
	// pronunciation have different numbers of syllables.
	ErrSyllableCountMismatch = errors.New("syllable count mismatch")

	// ErrPhonemeCountMismatch is returned when aligned syllables have
	// different numbers of phonemes.
	ErrPhonemeCountMismatch = errors.New("phoneme count mismatch")

	// ErrInvalidInput is returned for an empty training set or empty text.
	ErrInvalidInput = notation.ErrInvalidInput
)

// Pair is one training example: the intended pronunciation and what the
// speaker actually said, both in word notation.
type Pair struct {
	Target string `json:"target" yaml:"target"`
	Actual string `json:"actual" yaml:"actual"`
}

// Observation is one aligned consonant of a training pair.
type Observation struct {
	Target  phoneme.Phoneme
	Actual  phoneme.Phoneme
	Context environment.Context
}

// Observe parses every pair and returns one observation per aligned
// consonant, in input order. Any malformed pair fails the whole call.
func Observe(pairs []Pair) ([]Observation, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("rules: empty training set: %w", ErrInvalidInput)
	}
	var obs []Observation
	for i, pair := range pairs {
		target, err := notation.Parse(pair.Target)
		if err != nil {
			return nil, fmt.Errorf("rules: pair %d target: %w", i+1, err)
		}
		actual, err := notation.Parse(pair.Actual)
		if err != nil {
			return nil, fmt.Errorf("rules: pair %d actual: %w", i+1, err)
		}
		if len(target) != len(actual) {
			return nil, fmt.Errorf("rules: pair %d (%q, %q): %w: %d != %d",
				i+1, pair.Target, pair.Actual, ErrSyllableCountMismatch, len(target), len(actual))
		}
		for j := range target {
			if len(target[j]) != len(actual[j]) {
				return nil, fmt.Errorf("rules: pair %d (%q, %q) syllable %d: %w: %d != %d",
					i+1, pair.Target, pair.Actual, j+1, ErrPhonemeCountMismatch, len(target[j]), len(actual[j]))
			}
		}
		for _, site := range environment.Sites(target) {
			if site.Phoneme.IsVowel() {
				continue
			}
			obs = append(obs, Observation{
				Target:  site.Phoneme,
				Actual:  actual[site.Syllable][site.Index],
				Context: site.Context,
			})
		}
	}
	return obs, nil
}

// Fold builds the rule set from observations in order.
//
// A correct pronunciation narrows every rule of the phoneme that maps
// elsewhere and widens the self rule, creating it globally scoped if absent.
// A substitution narrows the self rule and every rule with a different
// output, and widens the rule with the observed output. A missing rule is
// created globally scoped when it is the phoneme's first rule and scoped to
// the observed positions otherwise.
func Fold(obs []Observation) *RuleSet {
	rs := newRuleSet()
	for _, o := range obs {
		rules := rs.rules[o.Target]
		found := false
		for i := range rules {
			r := &rules[i]
			switch {
			case r.Actual == o.Actual:
				r.Environment.Observe(o.Context)
				found = true
			default:
				// Covers the self rule on a substitution and every other
				// output on a correct pronunciation.
				r.Environment.Exclude(o.Context)
			}
		}
		if found {
			continue
		}

		env := environment.Global()
		if len(rules) > 0 && o.Target != o.Actual {
			env = o.Context.Environment()
			env.GlobalAdjacency()
		}
		rs.add(SpecificRule{Target: o.Target, Actual: o.Actual, Environment: env})
	}
	return rs
}

// Form runs [Observe] and [Fold].
func Form(pairs []Pair) (*RuleSet, error) {
	obs, err := Observe(pairs)
	if err != nil {
		return nil, err
	}
	return Fold(obs), nil
}

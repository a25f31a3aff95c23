// Package rules learns phoneme substitution rules from paired examples and
// applies them to predict how new words will be pronounced.
//
// Training runs in three steps. [Observe] aligns every training pair and
// records the context of each consonant. [Fold] turns those observations
// into context-scoped [SpecificRule] values. A [Generalizer] then merges
// specific rules with the same feature-level effect into [GeneralizedRule]
// values that transfer to phonemes never seen in training. A [Guesser]
// applies specific rules first and generalized rules as a fallback.
//
// [Train] runs the whole pipeline and returns an immutable [Model]:
//
//	m, err := rules.Train([]rules.Pair{
//		{Target: "K-AE-T", Actual: "T-AE-T"},
//		{Target: "P-AA-T", Actual: "P-AA-T"},
//	})
//	if err != nil {
//		return err
//	}
//	guess, err := m.Guess("G-EY-M") // "D-EY-M"
package rules

import (
	"fmt"
	"time"
)

// Stats summarizes one training pass.
type Stats struct {
	Pairs            int           `json:"pairs"`
	Observations     int           `json:"observations"`
	SpecificRules    int           `json:"specific_rules"`
	GeneralizedRules int           `json:"generalized_rules"`
	Duration         time.Duration `json:"duration"`
}

// Model is the result of one training pass. It is read-only and safe for
// concurrent use.
type Model struct {
	specific *RuleSet
	general  []GeneralizedRule
	guesser  *Guesser
	stats    Stats
}

// Train learns a model from pairs.
func Train(pairs []Pair, opts ...Option) (*Model, error) {
	o := newOptions(opts)
	start := time.Now()

	obs, err := Observe(pairs)
	if err != nil {
		return nil, err
	}
	specific := Fold(obs)
	general := NewGeneralizer(opts...).Generalize(specific.All())
	if err := checkEnvironments(specific.All(), general); err != nil {
		return nil, err
	}

	m := &Model{
		specific: specific,
		general:  general,
		guesser:  NewGuesser(specific, general),
		stats: Stats{
			Pairs:            len(pairs),
			Observations:     len(obs),
			SpecificRules:    specific.Len(),
			GeneralizedRules: len(general),
			Duration:         time.Since(start),
		},
	}
	o.logger.Debug("rules: trained model",
		"pairs", m.stats.Pairs,
		"observations", m.stats.Observations,
		"specific_rules", m.stats.SpecificRules,
		"generalized_rules", m.stats.GeneralizedRules,
		"contrast_refinement", o.contrast,
	)
	return m, nil
}

// checkEnvironments validates the environment of every learned rule.
func checkEnvironments(specific []SpecificRule, general []GeneralizedRule) error {
	for _, r := range specific {
		if err := r.Environment.Validate(); err != nil {
			return fmt.Errorf("rules: %v: %w", r, err)
		}
	}
	for _, g := range general {
		if err := g.Environment.Validate(); err != nil {
			return fmt.Errorf("rules: %v: %w", g, err)
		}
	}
	return nil
}

// Guess predicts how text is pronounced.
func (m *Model) Guess(text string) (string, error) { return m.guesser.Guess(text) }

// Explain returns the decision taken for every phoneme of text.
func (m *Model) Explain(text string) ([]Decision, error) { return m.guesser.Explain(text) }

// Predict returns the guess for text and the decisions that produced it.
func (m *Model) Predict(text string) (string, []Decision, error) { return m.guesser.Predict(text) }

// SpecificRules returns every learned specific rule.
func (m *Model) SpecificRules() []SpecificRule { return m.specific.All() }

// Rules returns the rule set backing m.
func (m *Model) Rules() *RuleSet { return m.specific }

// GeneralizedRules returns a copy of the generalized rules in application
// order.
func (m *Model) GeneralizedRules() []GeneralizedRule {
	return append([]GeneralizedRule(nil), m.general...)
}

// Stats returns the training summary.
func (m *Model) Stats() Stats { return m.stats }

package rules

import (
	"fmt"

	"github.com/MrWong99/phonoshift/pkg/environment"
	"github.com/MrWong99/phonoshift/pkg/notation"
	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

// Source names what decided the output of one phoneme.
type Source uint8

const (
	// SourceNone means no rule applied and the phoneme was kept.
	SourceNone Source = iota
	// SourceVowel means the phoneme is a vowel and passes through.
	SourceVowel
	// SourceSpecific means a specific rule applied.
	SourceSpecific
	// SourceGeneralized means a generalized rule applied.
	SourceGeneralized
)

func (s Source) String() string {
	switch s {
	case SourceVowel:
		return "vowel"
	case SourceSpecific:
		return "specific"
	case SourceGeneralized:
		return "generalized"
	default:
		return "none"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Decision explains the output for one phoneme of a guessed word.
type Decision struct {
	Syllable int                 `json:"syllable"`
	Index    int                 `json:"index"`
	Target   phoneme.Phoneme     `json:"target"`
	Output   phoneme.Phoneme     `json:"output"`
	Context  environment.Context `json:"context"`
	Source   Source              `json:"source"`

	// Specific is set when Source is SourceSpecific.
	Specific *SpecificRule `json:"specific,omitempty"`

	// Generalized is set when Source is SourceGeneralized.
	Generalized *GeneralizedRule `json:"generalized,omitempty"`
}

// Guesser predicts pronunciations from learned rules. It never modifies the
// rules it was built from and is safe for concurrent use.
type Guesser struct {
	specific *RuleSet
	general  []GeneralizedRule
}

// NewGuesser returns a [Guesser] over the given rules.
func NewGuesser(specific *RuleSet, general []GeneralizedRule) *Guesser {
	if specific == nil {
		specific = newRuleSet()
	}
	return &Guesser{specific: specific, general: general}
}

// Guess predicts how text is pronounced, in the same notation.
func (g *Guesser) Guess(text string) (string, error) {
	got, _, err := g.Predict(text)
	return got, err
}

// Predict returns the guess for text together with the decision behind every
// phoneme, walking the word once.
func (g *Guesser) Predict(text string) (string, []Decision, error) {
	w, decisions, err := g.decide(text)
	if err != nil {
		return "", nil, err
	}
	for _, d := range decisions {
		w[d.Syllable][d.Index] = d.Output
	}
	return w.String(), decisions, nil
}

// Explain returns the decision taken for every phoneme of text.
func (g *Guesser) Explain(text string) ([]Decision, error) {
	_, decisions, err := g.decide(text)
	return decisions, err
}

func (g *Guesser) decide(text string) (notation.Word, []Decision, error) {
	w, err := notation.Parse(text)
	if err != nil {
		return nil, nil, fmt.Errorf("rules: guess: %w", err)
	}
	sites := environment.Sites(w)
	decisions := make([]Decision, 0, len(sites))
	for _, s := range sites {
		decisions = append(decisions, g.decideSite(s))
	}
	return w, decisions, nil
}

func (g *Guesser) decideSite(s environment.Site) Decision {
	d := Decision{
		Syllable: s.Syllable,
		Index:    s.Index,
		Target:   s.Phoneme,
		Output:   s.Phoneme,
		Context:  s.Context,
	}
	if s.Phoneme.IsVowel() {
		d.Source = SourceVowel
		return d
	}
	if r, ok := g.specific.match(s.Phoneme, s.Context); ok {
		d.Output, d.Source, d.Specific = r.Actual, SourceSpecific, &r
		return d
	}
	for i := range g.general {
		gr := g.general[i]
		if out, ok := gr.Apply(s.Phoneme, s.Context); ok {
			d.Output, d.Source, d.Generalized = out, SourceGeneralized, &gr
			return d
		}
	}
	return d
}

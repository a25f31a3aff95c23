package rules

import (
	"log/slog"

	"github.com/MrWong99/phonoshift/pkg/environment"
	"github.com/MrWong99/phonoshift/pkg/phoneme"
)

// Option configures a [Generalizer] or a [Train] call.
type Option func(*options)

type options struct {
	contrast bool
	logger   *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithContrastRefinement makes the generalizer also exclude the voicing
// counterpart of every adjacency exception. Default: off.
func WithContrastRefinement(enabled bool) Option {
	return func(o *options) {
		o.contrast = enabled
	}
}

// WithLogger sets the logger used for training diagnostics.
// Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Generalizer merges specific rules that share a feature-level effect into
// generalized rules.
type Generalizer struct {
	opts options
}

// NewGeneralizer returns a [Generalizer] configured with opts.
func NewGeneralizer(opts ...Option) *Generalizer {
	return &Generalizer{opts: newOptions(opts)}
}

// Generalize derives one generalized rule per feature signature from the
// non-self rules in rules. Rules whose output is a vowel are skipped.
func (g *Generalizer) Generalize(rules []SpecificRule) []GeneralizedRule {
	var out []GeneralizedRule
	for _, r := range rules {
		gr, ok := lift(r)
		if !ok {
			continue
		}
		out = append(out, gr)
	}
	return g.Merge(out)
}

// lift expresses r over feature classes.
func lift(r SpecificRule) (GeneralizedRule, bool) {
	if r.IsSelf() {
		return GeneralizedRule{}, false
	}
	from, ok := r.Target.Articulation()
	if !ok {
		return GeneralizedRule{}, false
	}
	to, ok := r.Actual.Articulation()
	if !ok {
		return GeneralizedRule{}, false
	}

	gr := GeneralizedRule{Environment: r.Environment, Support: 1}
	if from.Place == to.Place {
		gr.Input.Places = phoneme.AllOf[phoneme.Place]()
		gr.RemainsSame = gr.RemainsSame.With(phoneme.PlaceDimension)
	} else {
		gr.Input.Places = gr.Input.Places.With(from.Place)
		gr.Output.Places = gr.Output.Places.With(to.Place)
	}
	if from.Manner == to.Manner {
		gr.Input.Manners = phoneme.AllOf[phoneme.Manner]()
		gr.RemainsSame = gr.RemainsSame.With(phoneme.MannerDimension)
	} else {
		gr.Input.Manners = gr.Input.Manners.With(from.Manner)
		gr.Output.Manners = gr.Output.Manners.With(to.Manner)
	}
	if from.Voice == to.Voice {
		gr.Input.Voices = phoneme.AllOf[phoneme.Voice]()
		gr.RemainsSame = gr.RemainsSame.With(phoneme.VoiceDimension)
	} else {
		gr.Input.Voices = gr.Input.Voices.With(from.Voice)
		gr.Output.Voices = gr.Output.Voices.With(to.Voice)
	}
	return gr, true
}

// Merge combines rules with the same signature. Position sets are
// intersected and adjacency sets lose every exception of every contributor.
// Signatures keep the order of their first appearance. Merging an already
// merged set returns it unchanged.
func (g *Generalizer) Merge(rules []GeneralizedRule) []GeneralizedRule {
	index := make(map[Signature]int, len(rules))
	var out []GeneralizedRule
	for _, r := range rules {
		sig := r.Signature()
		i, ok := index[sig]
		if !ok {
			index[sig] = len(out)
			r.Environment = g.refine(r.Environment)
			out = append(out, r)
			continue
		}
		merged := &out[i]
		merged.Environment = g.refine(merged.Environment.Intersect(r.Environment))
		merged.Support += r.Support
	}
	if len(rules) != len(out) {
		g.opts.logger.Debug("rules: merged generalized rules", "in", len(rules), "out", len(out))
	}
	return out
}

// refine drops the voicing counterpart of every adjacency exception when
// contrast refinement is enabled.
func (g *Generalizer) refine(env environment.Environment) environment.Environment {
	if !g.opts.contrast {
		return env
	}
	for _, p := range env.DoesntComeAfter().Phonemes() {
		if c, ok := p.Contrast(); ok {
			env.RemoveComesAfter(c)
		}
	}
	for _, p := range env.DoesntComeBefore().Phonemes() {
		if c, ok := p.Contrast(); ok {
			env.RemoveComesBefore(c)
		}
	}
	return env
}

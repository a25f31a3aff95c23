// Package speaker keeps one trained pronunciation model per speaker and
// serves guesses from it.
//
// A speaker's training pairs come from a file declared in the config or, when
// no file is set, from the [dataset.Store]. File contents are mirrored into
// the store on every (re)training so the store always holds the data the
// current model was trained on. Models are swapped atomically: guesses in
// flight during a retrain keep using the previous model.
package speaker

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/phonoshift/internal/config"
	"github.com/MrWong99/phonoshift/internal/dataset"
	"github.com/MrWong99/phonoshift/internal/observe"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

var (
	// ErrUnknownSpeaker is returned for a speaker name that is not registered.
	ErrUnknownSpeaker = errors.New("speaker: unknown speaker")

	// ErrNotTrained is returned when a speaker has no model yet.
	ErrNotTrained = errors.New("speaker: not trained")
)

// Spec declares a speaker.
type Spec struct {
	Name   string
	File   string
	Format config.Format

	// ContrastRefinement overrides the registry default when non-nil.
	ContrastRefinement *bool
}

// SpecsFromConfig converts the speaker section of cfg.
func SpecsFromConfig(cfg *config.Config) []Spec {
	specs := make([]Spec, 0, len(cfg.Speakers))
	for _, s := range cfg.Speakers {
		specs = append(specs, Spec{
			Name:               s.Name,
			File:               s.File,
			Format:             s.Format,
			ContrastRefinement: s.ContrastRefinement,
		})
	}
	return specs
}

// Info is a snapshot of one speaker for listings.
type Info struct {
	Name      string      `json:"name"`
	Source    string      `json:"source"`
	Trained   bool        `json:"trained"`
	TrainedAt time.Time   `json:"trained_at,omitzero"`
	Stats     rules.Stats `json:"stats"`
	Error     string      `json:"error,omitempty"`
}

type entry struct {
	spec  Spec
	model atomic.Pointer[rules.Model]

	// train serialises retrains of this speaker.
	train sync.Mutex

	mu        sync.Mutex
	trainedAt time.Time
	lastErr   error
}

// Registry holds every speaker and their current model. It is safe for
// concurrent use.
type Registry struct {
	store    dataset.Store
	metrics  *observe.Metrics
	logger   *slog.Logger
	contrast atomic.Bool

	mu       sync.RWMutex
	speakers map[string]*entry
}

// Option configures a [Registry].
type Option func(*Registry)

// WithStore sets the training pair store. Default: a [dataset.MemStore].
func WithStore(s dataset.Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithContrastRefinement sets the default for speakers without an override.
func WithContrastRefinement(enabled bool) Option {
	return func(r *Registry) { r.contrast.Store(enabled) }
}

// New creates a registry with the given speakers. Nothing is trained until
// [Registry.TrainAll] or [Registry.Retrain] is called.
func New(specs []Spec, opts ...Option) *Registry {
	r := &Registry{speakers: make(map[string]*entry, len(specs))}
	for _, o := range opts {
		o(r)
	}
	if r.store == nil {
		r.store = dataset.NewMemStore()
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	for _, s := range specs {
		r.speakers[s.Name] = &entry{spec: s}
	}
	return r
}

// Store returns the registry's pair store.
func (r *Registry) Store() dataset.Store { return r.store }

// Names returns the registered speaker names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.speakers))
	for name := range r.speakers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) lookup(name string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.speakers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSpeaker, name)
	}
	return e, nil
}

// TrainAll trains every registered speaker concurrently. Failures do not
// stop the other speakers; all of them are returned joined.
func (r *Registry) TrainAll(ctx context.Context) error {
	names := r.Names()
	errs := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			errs[i] = r.Retrain(gctx, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// Retrain reloads the speaker's pairs and swaps in a freshly trained model.
// On failure the previous model stays in service.
func (r *Registry) Retrain(ctx context.Context, name string) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	e.train.Lock()
	defer e.train.Unlock()

	ctx, span := observe.StartSpan(ctx, "speaker.retrain",
		trace.WithAttributes(attribute.String("speaker", name)))
	defer span.End()

	pairs, err := r.pairs(ctx, e.spec)
	var m *rules.Model
	if err == nil {
		m, err = r.train(ctx, e.spec, pairs)
	}
	if err != nil {
		observe.RecordError(span, err)
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		return err
	}
	r.swap(ctx, e, m)
	return nil
}

func (r *Registry) pairs(ctx context.Context, spec Spec) ([]rules.Pair, error) {
	if spec.File == "" {
		pairs, err := r.store.Pairs(ctx, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("speaker %s: %w", spec.Name, err)
		}
		return pairs, nil
	}
	format := spec.Format
	if format == "" {
		format = config.FormatFromPath(spec.File)
	}
	pairs, err := dataset.Import(ctx, r.store, spec.Name, spec.File, string(format))
	switch {
	case err != nil && pairs == nil:
		return nil, fmt.Errorf("speaker %s: %w", spec.Name, err)
	case err != nil:
		// The file stays authoritative, so a store outage only costs the mirror.
		r.logger.WarnContext(ctx, "could not mirror training file into store", "speaker", spec.Name, "err", err)
	}
	return pairs, nil
}

// train fits a model for spec and records the outcome.
func (r *Registry) train(ctx context.Context, spec Spec, pairs []rules.Pair) (*rules.Model, error) {
	opts := []rules.Option{
		rules.WithContrastRefinement(r.contrastFor(spec)),
		rules.WithLogger(r.logger.With("speaker", spec.Name)),
	}
	start := time.Now()
	m, err := rules.Train(pairs, opts...)
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.RecordTraining(ctx, spec.Name, len(pairs), 0, 0, elapsed, err)
		return nil, fmt.Errorf("speaker %s: %w", spec.Name, err)
	}
	st := m.Stats()
	r.metrics.RecordTraining(ctx, spec.Name, st.Pairs, st.SpecificRules, st.GeneralizedRules, elapsed, nil)
	r.logger.InfoContext(ctx, "speaker trained",
		"speaker", spec.Name,
		"pairs", st.Pairs,
		"specific_rules", st.SpecificRules,
		"generalized_rules", st.GeneralizedRules,
		"duration", elapsed,
	)
	return m, nil
}

// swap puts m in service for e. Callers hold e.train.
func (r *Registry) swap(ctx context.Context, e *entry, m *rules.Model) {
	if prev := e.model.Swap(m); prev == nil {
		r.metrics.ActiveSpeakers.Add(ctx, 1)
	}
	e.mu.Lock()
	e.trainedAt = time.Now()
	e.lastErr = nil
	e.mu.Unlock()
}

func (r *Registry) contrastFor(s Spec) bool {
	if s.ContrastRefinement != nil {
		return *s.ContrastRefinement
	}
	return r.contrast.Load()
}

// SetPairs replaces the training data of a speaker and retrains it. An
// unknown name registers a new store-backed speaker. Pairs that fail to
// train are rejected before anything is stored.
func (r *Registry) SetPairs(ctx context.Context, name string, pairs []rules.Pair) (rules.Stats, error) {
	if name == "" {
		return rules.Stats{}, fmt.Errorf("speaker: empty name: %w", rules.ErrInvalidInput)
	}

	r.mu.Lock()
	e, ok := r.speakers[name]
	if !ok {
		e = &entry{spec: Spec{Name: name}}
		r.speakers[name] = e
	}
	r.mu.Unlock()

	e.train.Lock()
	defer e.train.Unlock()

	m, err := r.train(ctx, e.spec, pairs)
	if err != nil {
		if !ok {
			r.forget(name, e)
		}
		return rules.Stats{}, err
	}
	if err := r.store.Replace(ctx, name, pairs); err != nil {
		if !ok {
			r.forget(name, e)
		}
		return rules.Stats{}, fmt.Errorf("speaker %s: %w", name, err)
	}
	r.swap(ctx, e, m)
	return m.Stats(), nil
}

// forget removes e if it is still registered under name.
func (r *Registry) forget(name string, e *entry) {
	r.mu.Lock()
	if r.speakers[name] == e {
		delete(r.speakers, name)
	}
	r.mu.Unlock()
}

// Model returns the current model of a speaker.
func (r *Registry) Model(name string) (*rules.Model, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	m := e.model.Load()
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotTrained, name)
	}
	return m, nil
}

// Guess predicts how the speaker pronounces target.
func (r *Registry) Guess(ctx context.Context, name, target string) (string, error) {
	m, err := r.Model(name)
	if err != nil {
		return "", err
	}
	start := time.Now()
	got, err := m.Guess(target)
	r.metrics.RecordGuess(ctx, name, time.Since(start), err)
	return got, err
}

// Explain predicts like [Registry.Guess] and reports the decision taken for
// every phoneme.
func (r *Registry) Explain(ctx context.Context, name, target string) (string, []rules.Decision, error) {
	m, err := r.Model(name)
	if err != nil {
		return "", nil, err
	}
	start := time.Now()
	guess, decisions, err := m.Predict(target)
	r.metrics.RecordGuess(ctx, name, time.Since(start), err)
	if err != nil {
		return "", nil, err
	}
	return guess, decisions, nil
}

// List returns a snapshot of every speaker, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.speakers))
	for _, e := range r.speakers {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		info := Info{Name: e.spec.Name, Source: "store"}
		if e.spec.File != "" {
			info.Source = e.spec.File
		}
		if m := e.model.Load(); m != nil {
			info.Trained = true
			info.Stats = m.Stats()
		}
		e.mu.Lock()
		info.TrainedAt = e.trainedAt
		if e.lastErr != nil {
			info.Error = e.lastErr.Error()
		}
		e.mu.Unlock()
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b Info) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return infos
}

// Ready returns an error naming every speaker without a model.
func (r *Registry) Ready(context.Context) error {
	var missing []string
	for _, info := range r.List() {
		if !info.Trained {
			missing = append(missing, info.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrNotTrained, missing)
	}
	return nil
}

// Apply brings the registry in line with a reloaded config. Removed speakers
// are dropped, added and changed speakers are retrained, and a change of the
// global training options retrains everyone. Retrain failures are joined.
func (r *Registry) Apply(ctx context.Context, cfg *config.Config, d config.ConfigDiff) error {
	specs := make(map[string]Spec, len(cfg.Speakers))
	for _, s := range SpecsFromConfig(cfg) {
		specs[s.Name] = s
	}
	r.contrast.Store(cfg.Training.ContrastRefinement)

	var retrain []string
	r.mu.Lock()
	for _, sd := range d.SpeakerChanges {
		switch {
		case sd.Removed:
			if e, ok := r.speakers[sd.Name]; ok {
				if e.model.Load() != nil {
					r.metrics.ActiveSpeakers.Add(ctx, -1)
				}
				delete(r.speakers, sd.Name)
			}
		case sd.Retrain():
			// Keep any model already serving under this name, for example a
			// speaker adopted from the store, until the new one is ready.
			old, ok := r.speakers[sd.Name]
			e := &entry{spec: specs[sd.Name]}
			if ok {
				e.model.Store(old.model.Load())
				old.mu.Lock()
				e.trainedAt = old.trainedAt
				old.mu.Unlock()
			}
			r.speakers[sd.Name] = e
			retrain = append(retrain, sd.Name)
		}
	}
	if d.TrainingChanged {
		retrain = retrain[:0]
		for name := range r.speakers {
			retrain = append(retrain, name)
		}
	}
	r.mu.Unlock()

	slices.Sort(retrain)
	retrain = slices.Compact(retrain)

	var errs []error
	for _, name := range retrain {
		if err := r.Retrain(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package dataset

import (
	"context"

	"github.com/MrWong99/phonoshift/internal/resilience"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

// Guarded wraps a [Store] so that every call goes through a circuit breaker.
// While the breaker is open calls fail with [resilience.ErrOpen] without
// reaching the underlying store.
type Guarded struct {
	store   Store
	breaker *resilience.Breaker
}

var _ Store = (*Guarded)(nil)

// Guard returns store protected by b.
func Guard(store Store, b *resilience.Breaker) *Guarded {
	return &Guarded{store: store, breaker: b}
}

// Pairs implements [Store].
func (g *Guarded) Pairs(ctx context.Context, speaker string) ([]rules.Pair, error) {
	var pairs []rules.Pair
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		pairs, err = g.store.Pairs(ctx, speaker)
		return err
	})
	return pairs, err
}

// Replace implements [Store].
func (g *Guarded) Replace(ctx context.Context, speaker string, pairs []rules.Pair) error {
	return g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.store.Replace(ctx, speaker, pairs)
	})
}

// Speakers implements [Store].
func (g *Guarded) Speakers(ctx context.Context) ([]string, error) {
	var names []string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		names, err = g.store.Speakers(ctx)
		return err
	})
	return names, err
}

// Ping implements [Store].
func (g *Guarded) Ping(ctx context.Context) error {
	return g.breaker.Do(ctx, g.store.Ping)
}

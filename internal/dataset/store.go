package dataset

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/phonoshift/pkg/rules"
)

// Store persists the training pairs of every speaker. Implementations must be
// safe for concurrent use.
type Store interface {
	// Pairs returns the pairs of speaker in insertion order. An unknown
	// speaker has no pairs and is not an error.
	Pairs(ctx context.Context, speaker string) ([]rules.Pair, error)

	// Replace atomically swaps the pairs of speaker for pairs.
	Replace(ctx context.Context, speaker string, pairs []rules.Pair) error

	// Speakers lists every speaker with at least one pair, sorted.
	Speakers(ctx context.Context) ([]string, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// MemStore is an in-process [Store].
type MemStore struct {
	mu    sync.RWMutex
	pairs map[string][]rules.Pair
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{pairs: make(map[string][]rules.Pair)}
}

// Pairs implements [Store].
func (s *MemStore) Pairs(_ context.Context, speaker string) ([]rules.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pairs[speaker]), nil
}

// Replace implements [Store].
func (s *MemStore) Replace(_ context.Context, speaker string, pairs []rules.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(pairs) == 0 {
		delete(s.pairs, speaker)
		return nil
	}
	s.pairs[speaker] = slices.Clone(pairs)
	return nil
}

// Speakers implements [Store].
func (s *MemStore) Speakers(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.pairs))
	for name := range s.pairs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Ping implements [Store]; a MemStore is always reachable.
func (s *MemStore) Ping(context.Context) error { return nil }

// Import loads the file at path and replaces the pairs of speaker with its
// contents. When the file loads but the store rejects it, the loaded pairs
// are returned together with the error.
func Import(ctx context.Context, store Store, speaker, path, format string) ([]rules.Pair, error) {
	pairs, err := Load(path, format)
	if err != nil {
		return nil, err
	}
	if err := store.Replace(ctx, speaker, pairs); err != nil {
		return pairs, fmt.Errorf("dataset: import %s: %w", speaker, err)
	}
	return pairs, nil
}

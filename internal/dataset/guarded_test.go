package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/phonoshift/internal/dataset"
	"github.com/MrWong99/phonoshift/internal/resilience"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

// flakyStore fails every call while down is set.
type flakyStore struct {
	*dataset.MemStore
	down  bool
	calls int
}

var errUnreachable = errors.New("dial tcp: connection refused")

func (s *flakyStore) Pairs(ctx context.Context, speaker string) ([]rules.Pair, error) {
	s.calls++
	if s.down {
		return nil, errUnreachable
	}
	return s.MemStore.Pairs(ctx, speaker)
}

func (s *flakyStore) Replace(ctx context.Context, speaker string, pairs []rules.Pair) error {
	s.calls++
	if s.down {
		return errUnreachable
	}
	return s.MemStore.Replace(ctx, speaker, pairs)
}

func (s *flakyStore) Ping(context.Context) error {
	s.calls++
	if s.down {
		return errUnreachable
	}
	return nil
}

func TestGuarded_PassesThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := dataset.Guard(dataset.NewMemStore(), resilience.New(resilience.Config{Name: "store"}))

	pairs := []rules.Pair{{Target: "K-AE T", Actual: "T-AE T"}}
	if err := g.Replace(ctx, "alex", pairs); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := g.Pairs(ctx, "alex")
	if err != nil {
		t.Fatalf("Pairs: %v", err)
	}
	if len(got) != 1 || got[0] != pairs[0] {
		t.Errorf("Pairs: got %v, want %v", got, pairs)
	}
	names, err := g.Speakers(ctx)
	if err != nil || len(names) != 1 || names[0] != "alex" {
		t.Errorf("Speakers: got %v, %v, want [alex]", names, err)
	}
	if err := g.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestGuarded_FailsFastWhenOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &flakyStore{MemStore: dataset.NewMemStore(), down: true}
	g := dataset.Guard(store, resilience.New(resilience.Config{
		Name:      "store",
		Threshold: 2,
		Cooldown:  time.Hour,
	}))

	for range 2 {
		if _, err := g.Pairs(ctx, "alex"); !errors.Is(err, errUnreachable) {
			t.Fatalf("Pairs: got %v, want %v", err, errUnreachable)
		}
	}
	if err := g.Replace(ctx, "alex", nil); !errors.Is(err, resilience.ErrOpen) {
		t.Errorf("Replace: got %v, want ErrOpen", err)
	}
	if err := g.Ping(ctx); !errors.Is(err, resilience.ErrOpen) {
		t.Errorf("Ping: got %v, want ErrOpen", err)
	}
	if store.calls != 2 {
		t.Errorf("store calls: got %d, want 2", store.calls)
	}
}

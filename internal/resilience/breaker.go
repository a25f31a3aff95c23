// Package resilience guards calls to remote dependencies with a circuit
// breaker so that an unreachable database fails fast instead of stalling
// every retrain and pair upload behind a connect timeout.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed forwards every call.
	Closed State = iota
	// Open rejects calls until the cooldown elapses.
	Open
	// Probing lets a bounded number of calls through to test recovery.
	Probing
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Probing:
		return "probing"
	default:
		return "unknown"
	}
}

// Config tunes a [Breaker]. Zero fields take defaults.
type Config struct {
	// Name identifies the guarded dependency in logs.
	Name string

	// Threshold is the number of consecutive failures that opens the
	// breaker. Default: 5.
	Threshold int

	// Cooldown is how long the breaker stays open before probing.
	// Default: 30s.
	Cooldown time.Duration

	// Probes is the number of successful probe calls needed to close again.
	// Default: 1.
	Probes int

	// Logger receives state transitions. Default: [slog.Default].
	Logger *slog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// Breaker is a three-state circuit breaker. It is safe for concurrent use.
type Breaker struct {
	cfg Config

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inflight int
	passed   int
}

// New returns a closed [Breaker].
func New(cfg Config) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Breaker{cfg: cfg}
}

// Do runs fn unless the breaker is open. Cancellation of ctx is not counted
// as a failure of the dependency.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}
	err = fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		b.release(probe)
		return err
	}
	b.settle(probe, err)
	return err
}

// State reports the current mode. An open breaker whose cooldown has elapsed
// reports [Probing].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.cfg.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return Probing
	}
	return b.state
}

func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.cfg.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false, ErrOpen
		}
		b.state = Probing
		b.inflight = 0
		b.passed = 0
		b.cfg.Logger.Info("circuit probing", "name", b.cfg.Name)
	}
	if b.state == Probing {
		if b.inflight >= b.cfg.Probes {
			return false, ErrOpen
		}
		b.inflight++
		return true, nil
	}
	return false, nil
}

func (b *Breaker) release(probe bool) {
	if !probe {
		return
	}
	b.mu.Lock()
	if b.state == Probing {
		b.inflight--
	}
	b.mu.Unlock()
}

func (b *Breaker) settle(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		if probe || b.failures+1 >= b.cfg.Threshold {
			b.trip(err)
			return
		}
		b.failures++
		return
	}

	if !probe {
		b.failures = 0
		return
	}
	if b.state != Probing {
		return
	}
	b.passed++
	if b.passed >= b.cfg.Probes {
		b.state = Closed
		b.failures = 0
		b.cfg.Logger.Info("circuit closed", "name", b.cfg.Name)
	}
}

// trip opens the breaker. b.mu must be held.
func (b *Breaker) trip(cause error) {
	if b.state != Open {
		b.cfg.Logger.Warn("circuit opened", "name", b.cfg.Name, "err", cause)
	}
	b.state = Open
	b.openedAt = b.cfg.now()
	b.failures = 0
}

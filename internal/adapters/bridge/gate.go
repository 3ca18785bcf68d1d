package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ports"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// Compile-time interface check
var _ ports.GameClientBridge = (*Gate)(nil)

// GateOptions tunes the serializing wrapper around a bridge
type GateOptions struct {
	// RatePerSecond caps script executions; 0 disables the limit
	RatePerSecond float64
	Burst         int

	// BreakerFailures consecutive bridge failures open the circuit for BreakerCooldown
	BreakerFailures int
	BreakerCooldown time.Duration

	// Observer, when set, is told about every call that passed the limiter
	Observer CallObserver
}

// CallObserver receives per-call timings from a Gate
type CallObserver interface {
	ObserveRateLimitWait(op string, wait time.Duration)
	ObserveCall(op string, duration time.Duration, err error)
	ObserveCircuitState(state CircuitState)
}

// DefaultGateOptions allows 4 scripts per second and opens after 5 failures
func DefaultGateOptions() GateOptions {
	return GateOptions{
		RatePerSecond:   4,
		Burst:           4,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// Gate makes any bridge safe to share: exactly one script runs at a time,
// scripts are rate limited, and a page that keeps throwing is left alone
// until the cooldown passes.
type Gate struct {
	inner    ports.GameClientBridge
	mu       sync.Mutex
	limiter  *rate.Limiter
	breaker  *CircuitBreaker
	observer CallObserver
}

// NewGate wraps inner
func NewGate(inner ports.GameClientBridge, opts GateOptions, clock shared.Clock) *Gate {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Gate{
		inner:    inner,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  NewCircuitBreaker(opts.BreakerFailures, opts.BreakerCooldown, clock),
		observer: opts.Observer,
	}
}

// CircuitState exposes the breaker state for status reporting
func (g *Gate) CircuitState() CircuitState {
	return g.breaker.State()
}

func (g *Gate) do(ctx context.Context, op string, fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	waitStart := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return shared.NewBridgeUnavailableError(op, err)
	}

	start := time.Now()
	err := g.breaker.Call(fn)
	if errors.Is(err, ErrCircuitOpen) {
		err = shared.NewBridgeUnavailableError(op, err)
	}

	if g.observer != nil {
		g.observer.ObserveRateLimitWait(op, start.Sub(waitStart))
		g.observer.ObserveCall(op, time.Since(start), err)
		g.observer.ObserveCircuitState(g.breaker.State())
	}
	return err
}

func (g *Gate) IsBridgeReady(ctx context.Context) bool {
	var ready bool
	err := g.do(ctx, "ready check", func() error {
		ready = g.inner.IsBridgeReady(ctx)
		return nil
	})
	return err == nil && ready
}

func (g *Gate) IsSessionAuthenticated(ctx context.Context) bool {
	var authenticated bool
	err := g.do(ctx, "login check", func() error {
		authenticated = g.inner.IsSessionAuthenticated(ctx)
		return nil
	})
	return err == nil && authenticated
}

func (g *Gate) AttemptLogin(ctx context.Context, email, password string) bool {
	var submitted bool
	err := g.do(ctx, "login", func() error {
		submitted = g.inner.AttemptLogin(ctx, email, password)
		return nil
	})
	return err == nil && submitted
}

func (g *Gate) ReadBunkerSnapshot(ctx context.Context) (*bunker.BunkerSnapshot, error) {
	var snapshot *bunker.BunkerSnapshot
	err := g.do(ctx, "read bunker", func() error {
		var err error
		snapshot, err = g.inner.ReadBunkerSnapshot(ctx)
		return err
	})
	return snapshot, err
}

func (g *Gate) ReadPriceQuote(ctx context.Context) (*bunker.PriceQuote, error) {
	var quote *bunker.PriceQuote
	err := g.do(ctx, "read prices", func() error {
		var err error
		quote, err = g.inner.ReadPriceQuote(ctx)
		return err
	})
	return quote, err
}

func (g *Gate) ReadFleet(ctx context.Context) ([]fleet.Vessel, error) {
	vessels := []fleet.Vessel{}
	err := g.do(ctx, "read fleet", func() error {
		var err error
		vessels, err = g.inner.ReadFleet(ctx)
		return err
	})
	if vessels == nil {
		vessels = []fleet.Vessel{}
	}
	return vessels, err
}

func (g *Gate) Purchase(ctx context.Context, commodity bunker.Commodity, tons int64) error {
	return g.do(ctx, "purchase "+commodity.String(), func() error {
		return g.inner.Purchase(ctx, commodity, tons)
	})
}

func (g *Gate) DepartVessel(ctx context.Context, vesselID int64, speed float64, guards int) fleet.DepartureOutcome {
	var outcome fleet.DepartureOutcome
	err := g.do(ctx, "depart", func() error {
		outcome = g.inner.DepartVessel(ctx, vesselID, speed, guards)
		return nil
	})
	if err != nil {
		return fleet.DepartureOutcome{VesselID: vesselID, Error: err.Error()}
	}
	return outcome
}

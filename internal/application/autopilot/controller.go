package autopilot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/application/ledger/commands"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ports"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress
	ErrAlreadyRunning = errors.New("autopilot is already running")

	// ErrNotRunning is returned by Stop when there is nothing to stop
	ErrNotRunning = errors.New("autopilot is not running")

	// ErrCycleAlreadyQueued is returned by RunNow when one manual cycle is
	// already waiting for the running cycle to finish
	ErrCycleAlreadyQueued = errors.New("a cycle is already queued")
)

// Options tunes the wait phases of a run
type Options struct {
	ReadyPollInterval time.Duration
	ReadyMaxAttempts  int
	LoginPollInterval time.Duration
	LoginMaxAttempts  int
	DeparturePacing   time.Duration

	// Credentials for the one automatic login attempt, optional
	Email    string
	Password string
}

// DefaultOptions waits up to six minutes for the page and the login
func DefaultOptions() Options {
	return Options{
		ReadyPollInterval: 2 * time.Second,
		ReadyMaxAttempts:  180,
		LoginPollInterval: 2 * time.Second,
		LoginMaxAttempts:  180,
		DeparturePacing:   DefaultDeparturePacing,
	}
}

func (o Options) hasCredentials() bool {
	return o.Email != "" && o.Password != ""
}

// StatusReport is a point-in-time view of the controller
type StatusReport struct {
	State     controller.State
	UpdatedAt time.Time
	StartedAt *time.Time
	StoppedAt *time.Time
	LastError string
	Session   ledger.SessionTotals
	LastCycle *CycleSummary
	Settings  settings.Configuration
}

// Controller owns the autopilot schedule: wait for the page, wait for the
// login, then run a cycle every CheckIntervalSeconds until stopped.
//
// Scheduled and manual cycles share one exclusion slot so their bridge
// writes never interleave. At most one manual cycle may wait for the slot.
type Controller struct {
	bridge       ports.GameClientBridge
	settings     settings.Provider
	orchestrator *CycleOrchestrator
	sink         StatusSink
	session      *ledger.SessionLedger
	mediator     common.Mediator
	state        *controller.StateMachine
	clock        shared.Clock
	logger       common.Logger
	opts         Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	cycleSlot   chan struct{}
	pending     chan struct{}
	lastSummary atomic.Pointer[CycleSummary]
}

// NewController creates a controller in IDLE state.
// mediator may be nil, in which case nothing is persisted.
func NewController(
	bridge ports.GameClientBridge,
	provider settings.Provider,
	sink StatusSink,
	mediator common.Mediator,
	logger common.Logger,
	clock shared.Clock,
	opts Options,
) *Controller {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if sink == nil {
		sink = noOpSink{}
	}
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}
	defaults := DefaultOptions()
	if opts.ReadyPollInterval <= 0 {
		opts.ReadyPollInterval = defaults.ReadyPollInterval
	}
	if opts.ReadyMaxAttempts <= 0 {
		opts.ReadyMaxAttempts = defaults.ReadyMaxAttempts
	}
	if opts.LoginPollInterval <= 0 {
		opts.LoginPollInterval = defaults.LoginPollInterval
	}
	if opts.LoginMaxAttempts <= 0 {
		opts.LoginMaxAttempts = defaults.LoginMaxAttempts
	}

	return &Controller{
		bridge:       bridge,
		settings:     provider,
		orchestrator: NewCycleOrchestrator(bridge, sink, clock, opts.DeparturePacing),
		sink:         sink,
		session:      ledger.NewSessionLedger(clock),
		mediator:     mediator,
		state:        controller.NewStateMachine(clock),
		clock:        clock,
		logger:       logger,
		opts:         opts,
		cycleSlot:    make(chan struct{}, 1),
		pending:      make(chan struct{}, 1),
	}
}

// Start begins a run in the background. ctx bounds the whole run: cancelling
// it has the same effect as Stop, so pass a process-lifetime context, not a
// request context.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.State().IsRunning() {
		return ErrAlreadyRunning
	}

	transition, err := c.state.Begin()
	if err != nil {
		return fmt.Errorf("failed to start autopilot: %w", err)
	}

	runCtx, cancel := context.WithCancel(common.WithLogger(ctx, c.logger))
	c.cancel = cancel
	c.done = make(chan struct{})

	c.publishTransition(transition)
	go c.run(runCtx, cancel, c.done)
	return nil
}

// Stop cancels the current run and waits for its goroutine to exit.
// Every wait point observes the cancellation within one poll tick.
func (c *Controller) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}

	cancel()
	<-done
	return nil
}

// Wait blocks until the current run (if any) has ended
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// State returns the current controller state
func (c *Controller) State() controller.State {
	return c.state.State()
}

// Session returns the session counters
func (c *Controller) Session() ledger.SessionTotals {
	return c.session.Snapshot()
}

// ResetSession zeroes the session counters
func (c *Controller) ResetSession() ledger.SessionTotals {
	totals := c.session.Reset()
	c.logger.Log(common.LevelInfo, "Session counters reset", nil)
	c.publish(Event{Type: EventStatus, Level: common.LevelInfo, Message: "Session counters reset", Session: &totals})
	return totals
}

// LastCycle returns the summary of the most recent cycle, nil before the first
func (c *Controller) LastCycle() *CycleSummary {
	return c.lastSummary.Load()
}

// Status assembles a StatusReport
func (c *Controller) Status() StatusReport {
	report := StatusReport{
		State:     c.state.State(),
		UpdatedAt: c.state.UpdatedAt(),
		StartedAt: c.state.StartedAt(),
		StoppedAt: c.state.StoppedAt(),
		Session:   c.session.Snapshot(),
		LastCycle: c.lastSummary.Load(),
		Settings:  c.settings.Current(),
	}
	if err := c.state.LastError(); err != nil {
		report.LastError = err.Error()
	}
	return report
}

// RunNow runs one cycle on the caller's goroutine, independent of the
// schedule. If a cycle is in progress it waits for it; if another manual
// cycle is already waiting it returns ErrCycleAlreadyQueued.
func (c *Controller) RunNow(ctx context.Context) (*CycleSummary, error) {
	select {
	case c.pending <- struct{}{}:
	default:
		return nil, ErrCycleAlreadyQueued
	}

	select {
	case c.cycleSlot <- struct{}{}:
		<-c.pending
	case <-ctx.Done():
		<-c.pending
		return nil, ctx.Err()
	}
	defer func() { <-c.cycleSlot }()

	return c.executeCycle(ctx, TriggerManual), nil
}

// Refresh reads bunker and prices without deciding anything and publishes them
func (c *Controller) Refresh(ctx context.Context) (*bunker.BunkerSnapshot, *bunker.PriceQuote, error) {
	snapshot, snapErr := c.bridge.ReadBunkerSnapshot(ctx)
	if snapErr == nil && snapshot != nil {
		c.publish(Event{Type: EventBunkerUpdated, Bunker: snapshot})
	}

	quote, quoteErr := c.bridge.ReadPriceQuote(ctx)
	if quoteErr == nil && quote != nil {
		c.publish(Event{Type: EventPricesUpdated, Prices: quote})
	}

	if snapErr != nil {
		return snapshot, quote, fmt.Errorf("failed to read bunker: %w", snapErr)
	}
	if quoteErr != nil {
		return snapshot, quote, fmt.Errorf("failed to read prices: %w", quoteErr)
	}
	return snapshot, quote, nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	err := c.awaitBridge(ctx)
	if err == nil {
		err = c.awaitLogin(ctx)
	}
	if err == nil {
		c.loop(ctx)
	}

	c.finish(err, done)
}

func (c *Controller) awaitBridge(ctx context.Context) error {
	c.statusLine(ctx, common.LevelInfo, "Waiting for game page…")

	started := c.clock.Now()
	for attempt := 1; attempt <= c.opts.ReadyMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.bridge.IsBridgeReady(ctx) {
			return c.advance(c.state.BridgeReady)
		}
		if err := shared.SleepContext(ctx, c.opts.ReadyPollInterval); err != nil {
			return err
		}
	}
	return shared.NewWaitTimeoutError("game page", c.opts.ReadyMaxAttempts, c.clock.Now().Sub(started))
}

func (c *Controller) awaitLogin(ctx context.Context) error {
	c.statusLine(ctx, common.LevelInfo, "Waiting for login…")

	if c.opts.hasCredentials() && !c.bridge.IsSessionAuthenticated(ctx) {
		if c.bridge.AttemptLogin(ctx, c.opts.Email, c.opts.Password) {
			c.statusLine(ctx, common.LevelInfo, "Login submitted")
		} else {
			c.statusLine(ctx, common.LevelWarn, "Automatic login failed, waiting for manual login")
		}
	}

	started := c.clock.Now()
	for attempt := 1; attempt <= c.opts.LoginMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.bridge.IsSessionAuthenticated(ctx) {
			if err := c.advance(c.state.Authenticated); err != nil {
				return err
			}
			c.statusLine(ctx, common.LevelInfo, "Logged in, auto-manager active")
			return nil
		}
		if err := shared.SleepContext(ctx, c.opts.LoginPollInterval); err != nil {
			return err
		}
	}
	return shared.NewWaitTimeoutError("login", c.opts.LoginMaxAttempts, c.clock.Now().Sub(started))
}

// loop runs scheduled cycles until ctx ends. The interval is re-read after
// every cycle so edits apply without a restart.
func (c *Controller) loop(ctx context.Context) {
	for {
		select {
		case c.cycleSlot <- struct{}{}:
		case <-ctx.Done():
			return
		}
		c.executeCycle(ctx, TriggerScheduled)
		<-c.cycleSlot

		interval := c.settings.Current().CheckInterval()
		if err := shared.SleepContext(ctx, interval); err != nil {
			return
		}
	}
}

// executeCycle runs one cycle. The caller holds the cycle slot.
func (c *Controller) executeCycle(ctx context.Context, trigger Trigger) *CycleSummary {
	cycleID := utils.GenerateCycleID(string(trigger))
	ctx = common.WithLogger(common.WithCycleID(ctx, cycleID), c.logger)

	cfg := c.settings.Current()
	summary := c.orchestrator.Run(ctx, cfg, CycleHooks{
		OnPurchase:  c.recordPurchase,
		OnDeparture: c.recordDeparture,
	})
	summary.Trigger = trigger

	c.lastSummary.Store(summary)
	c.statusLine(ctx, summaryLevel(summary), summary.Headline())
	c.publish(Event{Type: EventCycleCompleted, CycleID: cycleID, Cycle: summary})
	return summary
}

func (c *Controller) recordPurchase(ctx context.Context, plan bunker.PurchasePlan) {
	c.session.RecordPurchase(plan)

	if c.mediator == nil {
		return
	}
	now := c.clock.Now()
	if _, err := c.mediator.Send(ctx, &commands.RecordPurchaseCommand{
		Plan:      plan,
		CycleID:   common.CycleIDFromContext(ctx),
		Timestamp: &now,
	}); err != nil {
		c.logger.Log(common.LevelWarn, fmt.Sprintf("Failed to persist %s purchase: %v", plan.Commodity, err), nil)
	}
}

func (c *Controller) recordDeparture(ctx context.Context, outcome fleet.DepartureOutcome) {
	totals := c.session.RecordDeparture(outcome)

	if c.mediator != nil {
		if _, err := c.mediator.Send(ctx, &commands.RecordDepartureCommand{
			Outcome: outcome,
			CycleID: common.CycleIDFromContext(ctx),
		}); err != nil {
			c.logger.Log(common.LevelWarn, fmt.Sprintf("Failed to persist departure of %s: %v", outcome.VesselName, err), nil)
		}
	}

	c.publish(Event{
		Type:      EventDepartureRecorded,
		CycleID:   common.CycleIDFromContext(ctx),
		Departure: &outcome,
		Session:   &totals,
	})
}

// finish moves the controller to STOPPED. A wait timeout is fatal and
// reported as an error; a cancelled context is an operator stop.
func (c *Controller) finish(err error, done chan struct{}) {
	var cause error
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		cause = err
	}

	c.mu.Lock()
	if c.done == done {
		c.cancel = nil
	}
	c.mu.Unlock()

	transition, stopErr := c.state.Stop(cause)
	if stopErr != nil {
		c.logger.Log(common.LevelError, fmt.Sprintf("Failed to stop autopilot: %v", stopErr), nil)
		return
	}

	ctx := context.Background()
	if cause != nil {
		c.statusLine(ctx, common.LevelError, fmt.Sprintf("Auto-manager stopped: %v", cause))
	} else {
		c.statusLine(ctx, common.LevelInfo, "Auto-manager stopped")
	}
	c.publishTransition(transition)
}

func (c *Controller) advance(step func() (controller.Transition, error)) error {
	transition, err := step()
	if err != nil {
		return err
	}
	c.publishTransition(transition)
	return nil
}

func (c *Controller) publishTransition(t controller.Transition) {
	c.publish(Event{Type: EventStateChanged, At: t.At, Transition: &t})
}

func (c *Controller) publish(event Event) {
	if event.At.IsZero() {
		event.At = c.clock.Now()
	}
	c.sink.Publish(event)
}

func (c *Controller) statusLine(ctx context.Context, level, message string) {
	c.logger.Log(level, message, map[string]interface{}{
		"cycle_id": common.CycleIDFromContext(ctx),
		"state":    c.state.State().String(),
	})
	c.publish(Event{Type: EventStatus, CycleID: common.CycleIDFromContext(ctx), Level: level, Message: message})
}

func summaryLevel(s *CycleSummary) string {
	switch {
	case s.Panic != "":
		return common.LevelError
	case s.DataUnavailable:
		return common.LevelWarn
	default:
		return common.LevelInfo
	}
}

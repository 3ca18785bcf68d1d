package autopilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ports"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// DefaultDeparturePacing is the pause between two departure requests
const DefaultDeparturePacing = 500 * time.Millisecond

// CycleHooks lets the owner of the session ledger book what a cycle did.
// Either hook may be nil.
type CycleHooks struct {
	OnPurchase  func(ctx context.Context, plan bunker.PurchasePlan)
	OnDeparture func(ctx context.Context, outcome fleet.DepartureOutcome)
}

// CycleOrchestrator runs exactly one polling cycle: read, decide, act, report.
// Each concern is isolated: a fuel failure never blocks CO2 or dispatch, and
// one failed departure never aborts the rest of the list.
type CycleOrchestrator struct {
	bridge   ports.GameClientBridge
	policy   *bunker.ReplenishmentPolicy
	selector *fleet.Selector
	sink     StatusSink
	clock    shared.Clock
	pacing   time.Duration
}

// NewCycleOrchestrator creates an orchestrator.
// A negative pacing disables the delay between departures.
func NewCycleOrchestrator(
	bridge ports.GameClientBridge,
	sink StatusSink,
	clock shared.Clock,
	pacing time.Duration,
) *CycleOrchestrator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if sink == nil {
		sink = noOpSink{}
	}
	if pacing == 0 {
		pacing = DefaultDeparturePacing
	}

	return &CycleOrchestrator{
		bridge:   bridge,
		policy:   bunker.NewReplenishmentPolicy(),
		selector: fleet.NewSelector(),
		sink:     sink,
		clock:    clock,
		pacing:   pacing,
	}
}

// Run executes one cycle against cfg. It never panics and never returns nil.
// Every step runs under its own guard, so a panic in the fuel step still
// lets CO2 and dispatch run.
func (o *CycleOrchestrator) Run(ctx context.Context, cfg settings.Configuration, hooks CycleHooks) *CycleSummary {
	cycleID := common.CycleIDFromContext(ctx)
	summary := &CycleSummary{
		CycleID:   cycleID,
		StartedAt: o.clock.Now(),
	}
	defer func() { summary.FinishedAt = o.clock.Now() }()

	var (
		snapshot *bunker.BunkerSnapshot
		quote    *bunker.PriceQuote
		ok       bool
	)
	if msg := o.guard(ctx, summary, "read", func() {
		snapshot, quote, ok = o.readState(ctx, summary)
	}); msg != "" {
		summary.DataError = msg
	}
	if !ok {
		summary.DataUnavailable = true
		return summary
	}

	// Fuel first so its cash impact is visible to the CO2 decision
	if refreshed := o.replenishStep(ctx, summary, bunker.CommodityFuel, snapshot, quote, cfg, hooks, &summary.Fuel); refreshed != nil {
		snapshot = refreshed
	}
	o.replenishStep(ctx, summary, bunker.CommodityCO2, snapshot, quote, cfg, hooks, &summary.CO2)

	if cfg.AutoDepart {
		summary.DispatchEnabled = true
		if msg := o.guard(ctx, summary, "dispatch", func() {
			o.dispatch(ctx, summary, hooks)
		}); msg != "" && summary.FleetError == "" && summary.FleetSize == 0 {
			summary.FleetError = msg
		}
	}

	return summary
}

// guard runs one step and turns a panic into an error line. It returns the
// failure text for the step, or "" when the step completed.
func (o *CycleOrchestrator) guard(ctx context.Context, summary *CycleSummary, step string, fn func()) (failure string) {
	defer func() {
		if r := recover(); r != nil {
			summary.recordPanic(fmt.Sprint(r))
			o.status(ctx, common.LevelError, fmt.Sprintf("Cycle error: %v", r), map[string]interface{}{"step": step})
			failure = fmt.Sprintf("script panicked: %v", r)
		}
	}()
	fn()
	return ""
}

// readState reads snapshot and quote sequentially. Both must succeed for the
// cycle to act; whichever did arrive is still published.
func (o *CycleOrchestrator) readState(ctx context.Context, summary *CycleSummary) (*bunker.BunkerSnapshot, *bunker.PriceQuote, bool) {
	snapshot, snapErr := o.bridge.ReadBunkerSnapshot(ctx)
	if snapErr == nil && snapshot != nil {
		summary.Snapshot = snapshot
		o.publish(ctx, Event{Type: EventBunkerUpdated, Bunker: snapshot})
	}

	quote, quoteErr := o.bridge.ReadPriceQuote(ctx)
	if quoteErr == nil && quote != nil {
		summary.Quote = quote
		o.publish(ctx, Event{Type: EventPricesUpdated, Prices: quote})
	}

	if snapshot != nil && quote != nil && snapErr == nil && quoteErr == nil {
		return snapshot, quote, true
	}

	summary.DataUnavailable = true
	summary.DataError = joinErrors(snapErr, quoteErr)
	o.status(ctx, common.LevelWarn, "Couldn't read game data, is the game loaded?", map[string]interface{}{
		"error": summary.DataError,
	})
	return nil, nil, false
}

// replenishStep runs replenish under a guard. A panic before the purchase
// succeeded marks the commodity failed.
func (o *CycleOrchestrator) replenishStep(
	ctx context.Context,
	summary *CycleSummary,
	c bunker.Commodity,
	snapshot *bunker.BunkerSnapshot,
	quote *bunker.PriceQuote,
	cfg settings.Configuration,
	hooks CycleHooks,
	result *PurchaseResult,
) (refreshed *bunker.BunkerSnapshot) {
	msg := o.guard(ctx, summary, c.String(), func() {
		refreshed = o.replenish(ctx, c, snapshot, quote, cfg, hooks, result)
	})
	if msg != "" && !result.Success {
		result.Error = msg
		if result.Attempted {
			o.publish(ctx, Event{Type: EventPurchaseCompleted, Purchase: result.copy()})
		}
	}
	return refreshed
}

// replenish decides and executes one commodity, filling result as it goes.
// On a successful purchase it re-reads the snapshot once and returns it (nil
// if the re-read failed).
func (o *CycleOrchestrator) replenish(
	ctx context.Context,
	c bunker.Commodity,
	snapshot *bunker.BunkerSnapshot,
	quote *bunker.PriceQuote,
	cfg settings.Configuration,
	hooks CycleHooks,
	result *PurchaseResult,
) *bunker.BunkerSnapshot {
	plan := o.policy.Decide(c, snapshot, quote, cfg.RuleFor(c))
	*result = PurchaseResult{Plan: plan}

	if !plan.IsPurchase() {
		// A disabled commodity is not worth a line every cycle
		if plan.Reason != bunker.SkipReasonDisabled {
			o.status(ctx, common.LevelInfo, plan.Describe(), planMetadata(plan))
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return nil
	}

	o.status(ctx, common.LevelInfo, plan.Describe(), planMetadata(plan))
	result.Attempted = true

	if err := o.bridge.Purchase(ctx, c, plan.AmountTons); err != nil {
		result.Error = failureReason(err)
		o.status(ctx, common.LevelWarn, fmt.Sprintf("%s purchase failed: %s", c.Label(), result.Error), planMetadata(plan))
		o.publish(ctx, Event{Type: EventPurchaseCompleted, Purchase: result.copy()})
		return nil
	}

	result.Success = true
	o.status(ctx, common.LevelInfo, fmt.Sprintf("%s bought: %s", c.Label(), utils.FormatTons(float64(plan.AmountTons))), planMetadata(plan))
	o.publish(ctx, Event{Type: EventPurchaseCompleted, Purchase: result.copy()})
	if hooks.OnPurchase != nil {
		hooks.OnPurchase(ctx, plan)
	}

	refreshed, err := o.bridge.ReadBunkerSnapshot(ctx)
	if err != nil || refreshed == nil {
		o.status(ctx, common.LevelWarn, fmt.Sprintf("Couldn't refresh bunker after %s purchase, keeping previous figures", c.Label()), nil)
		return nil
	}
	o.publish(ctx, Event{Type: EventBunkerUpdated, Bunker: refreshed})
	return refreshed
}

func (o *CycleOrchestrator) dispatch(ctx context.Context, summary *CycleSummary, hooks CycleHooks) {
	vessels, err := o.bridge.ReadFleet(ctx)
	if err != nil {
		summary.FleetError = err.Error()
		o.status(ctx, common.LevelWarn, fmt.Sprintf("Couldn't read fleet: %v", err), nil)
	}
	summary.FleetSize = len(vessels)

	ready := o.selector.SelectDepartureEligible(vessels)
	summary.EligibleCount = len(ready)
	summary.Departures = make([]fleet.DepartureOutcome, 0, len(ready))
	atPort, parked, underway := o.selector.CountByStatus(vessels)
	o.status(ctx, common.LevelInfo,
		fmt.Sprintf("%d vessel(s) ready (fleet: %d at port, %d parked, %d underway)", len(ready), atPort, parked, underway),
		map[string]interface{}{"fleet_size": len(vessels)})

	for i, v := range ready {
		if i > 0 && o.pacing > 0 {
			if err := shared.SleepContext(ctx, o.pacing); err != nil {
				summary.Interrupted = true
				return
			}
		}
		if ctx.Err() != nil {
			summary.Interrupted = true
			return
		}

		outcome := o.depart(ctx, summary, v)
		outcome.VesselID = v.ID
		if outcome.VesselName == "" {
			outcome.VesselName = v.Name
		}
		if outcome.DepartedAt.IsZero() {
			outcome.DepartedAt = o.clock.Now()
		}
		summary.Departures = append(summary.Departures, outcome)

		meta := map[string]interface{}{
			"vessel_id":   v.ID,
			"vessel_name": v.DisplayName(),
			"destination": v.RouteDestination,
		}
		if !outcome.Success {
			o.status(ctx, common.LevelWarn, fmt.Sprintf("Depart failed %s: %s", v.DisplayName(), outcome.Error), meta)
			continue
		}

		meta["income"] = outcome.Income
		o.status(ctx, common.LevelInfo, fmt.Sprintf("Departed %s +%s", v.DisplayName(), utils.FormatCash(outcome.Income)), meta)
		if hooks.OnDeparture != nil {
			hooks.OnDeparture(ctx, outcome)
		}
	}
}

// depart sends one vessel; a panicking script fails only that vessel
func (o *CycleOrchestrator) depart(ctx context.Context, summary *CycleSummary, v fleet.Vessel) (outcome fleet.DepartureOutcome) {
	defer func() {
		if r := recover(); r != nil {
			summary.recordPanic(fmt.Sprint(r))
			o.status(ctx, common.LevelError, fmt.Sprintf("Cycle error: %v", r), map[string]interface{}{
				"step":      "depart",
				"vessel_id": v.ID,
			})
			outcome = fleet.DepartureOutcome{VesselID: v.ID, Error: fmt.Sprintf("script panicked: %v", r)}
		}
	}()
	return o.bridge.DepartVessel(ctx, v.ID, v.RouteSpeed, v.RouteGuards)
}

func (o *CycleOrchestrator) publish(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = o.clock.Now()
	}
	if event.CycleID == "" {
		event.CycleID = common.CycleIDFromContext(ctx)
	}
	o.sink.Publish(event)
}

// status emits a STATUS line and mirrors it to the context logger
func (o *CycleOrchestrator) status(ctx context.Context, level, message string, metadata map[string]interface{}) {
	common.LoggerFromContext(ctx).Log(level, message, metadata)
	o.publish(ctx, Event{Type: EventStatus, Level: level, Message: message})
}

func planMetadata(plan bunker.PurchasePlan) map[string]interface{} {
	return map[string]interface{}{
		"commodity":   plan.Commodity.String(),
		"amount_tons": plan.AmountTons,
		"unit_price":  plan.UnitPrice,
		"reason":      string(plan.Reason),
	}
}

// failureReason prefers the game's own error text over the wrapped chain
func failureReason(err error) string {
	var rejection *shared.RemoteRejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	return err.Error()
}

func joinErrors(errs ...error) string {
	msg := ""
	for _, err := range errs {
		if err == nil {
			continue
		}
		if msg != "" {
			msg += "; "
		}
		msg += err.Error()
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}

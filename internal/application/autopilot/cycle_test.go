package autopilot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioBridge() *helpers.MockBridge {
	bridge := helpers.NewMockBridge()
	bridge.Fuel, bridge.MaxFuel = 100, 1000
	bridge.CO2, bridge.MaxCO2 = 5, 50
	bridge.Cash = 2_000_000
	bridge.SetPrices(bunker.Price(400), bunker.Price(8))
	return bridge
}

func scenarioConfig() settings.Configuration {
	cfg := settings.Default()
	cfg.FuelMode = bunker.ModeBasic
	cfg.FuelThresholdPrice = 500
	cfg.FuelMinCashReserve = 1_000_000
	cfg.CO2Mode = bunker.ModeBasic
	cfg.CO2ThresholdPrice = 10
	cfg.CO2MinCashReserve = 1_000_000
	return cfg
}

func newOrchestrator(bridge *helpers.MockBridge, sink autopilot.StatusSink) *autopilot.CycleOrchestrator {
	return autopilot.NewCycleOrchestrator(bridge, sink, nil, -1)
}

func TestCycle_EndToEndScenario(t *testing.T) {
	// Arrange
	bridge := scenarioBridge()
	sink := helpers.NewRecordingSink()
	orchestrator := newOrchestrator(bridge, sink)

	// Act
	summary := orchestrator.Run(context.Background(), scenarioConfig(), autopilot.CycleHooks{})

	// Assert
	require.False(t, summary.DataUnavailable)
	assert.Equal(t, int64(900), summary.Fuel.Plan.AmountTons)
	assert.True(t, summary.Fuel.Success)
	assert.Equal(t, int64(45), summary.CO2.Plan.AmountTons)
	assert.True(t, summary.CO2.Success)

	purchases := bridge.CallsTo("Purchase")
	require.Len(t, purchases, 2)
	assert.Equal(t, bunker.CommodityFuel, purchases[0].Commodity)
	assert.Equal(t, int64(900), purchases[0].Tons)
	assert.Equal(t, bunker.CommodityCO2, purchases[1].Commodity)
	assert.Equal(t, int64(45), purchases[1].Tons)

	_, _, cash := bridge.State()
	assert.Equal(t, int64(2_000_000-360_000-360), cash)

	// Initial read, re-read after fuel, re-read after CO2
	assert.Len(t, bridge.CallsTo("ReadBunkerSnapshot"), 3)
	assert.Len(t, sink.OfType(autopilot.EventBunkerUpdated), 3)
	assert.Len(t, sink.OfType(autopilot.EventPricesUpdated), 1)
	assert.Len(t, sink.OfType(autopilot.EventPurchaseCompleted), 2)
	assert.Empty(t, bridge.CallsTo("ReadFleet"), "dispatch is off")
}

func TestCycle_CO2DecisionSeesCashAfterFuelPurchase(t *testing.T) {
	bridge := scenarioBridge()
	bridge.MaxCO2 = 200_000

	summary := newOrchestrator(bridge, nil).Run(context.Background(), scenarioConfig(), autopilot.CycleHooks{})

	// Refreshed cash 1_640_000 leaves 640_000 above reserve: 80_000t at $8
	assert.Equal(t, int64(80_000), summary.CO2.Plan.AmountTons)
}

func TestCycle_FuelQuoteMissingSkipsFuelOnly(t *testing.T) {
	bridge := scenarioBridge()
	bridge.SetPrices(nil, bunker.Price(8))
	sink := helpers.NewRecordingSink()

	summary := newOrchestrator(bridge, sink).Run(context.Background(), scenarioConfig(), autopilot.CycleHooks{})

	assert.False(t, summary.DataUnavailable)
	assert.Equal(t, bunker.SkipReasonNoQuote, summary.Fuel.Plan.Reason)
	assert.False(t, summary.Fuel.Attempted)
	assert.True(t, summary.CO2.Success)

	purchases := bridge.CallsTo("Purchase")
	require.Len(t, purchases, 1)
	assert.Equal(t, bunker.CommodityCO2, purchases[0].Commodity)
	assert.True(t, sink.HasStatusContaining("Fuel: no price available"))
}

func TestCycle_SnapshotFailureMeansZeroWrites(t *testing.T) {
	bridge := scenarioBridge()
	bridge.SnapshotErr = shared.NewBridgeUnavailableError("read bunker", errors.New("script threw"))
	bridge.Vessels = []fleet.Vessel{helpers.PortVessel(1, "Aurora")}
	sink := helpers.NewRecordingSink()

	cfg := scenarioConfig()
	cfg.AutoDepart = true

	summary := newOrchestrator(bridge, sink).Run(context.Background(), cfg, autopilot.CycleHooks{})

	assert.True(t, summary.DataUnavailable)
	assert.Contains(t, summary.DataError, "script threw")
	assert.Equal(t, 0, bridge.WriteCount())
	assert.Empty(t, bridge.CallsTo("ReadFleet"))

	// Prices arrived and are still surfaced
	assert.Len(t, sink.OfType(autopilot.EventPricesUpdated), 1)
	assert.Empty(t, sink.OfType(autopilot.EventBunkerUpdated))
	assert.True(t, sink.HasStatusContaining("Couldn't read game data"))
}

func TestCycle_QuoteFailureMeansZeroWrites(t *testing.T) {
	bridge := scenarioBridge()
	bridge.QuoteErr = shared.NewDataIncompleteError("prices", "empty price list")
	sink := helpers.NewRecordingSink()

	summary := newOrchestrator(bridge, sink).Run(context.Background(), scenarioConfig(), autopilot.CycleHooks{})

	assert.True(t, summary.DataUnavailable)
	assert.Equal(t, 0, bridge.WriteCount())
	assert.Len(t, sink.OfType(autopilot.EventBunkerUpdated), 1)
}

func TestCycle_FuelFailureDoesNotBlockCO2OrDispatch(t *testing.T) {
	bridge := scenarioBridge()
	bridge.MaxCO2 = 200_000
	bridge.PurchaseErr[bunker.CommodityFuel] = shared.NewRemoteRejectionError("purchase", "insufficient funds")
	bridge.Vessels = []fleet.Vessel{helpers.PortVessel(1, "Aurora")}
	sink := helpers.NewRecordingSink()

	cfg := scenarioConfig()
	cfg.AutoDepart = true

	summary := newOrchestrator(bridge, sink).Run(context.Background(), cfg, autopilot.CycleHooks{})

	assert.True(t, summary.Fuel.Attempted)
	assert.False(t, summary.Fuel.Success)
	assert.Equal(t, "insufficient funds", summary.Fuel.Error)

	// Original cash 2_000_000 -> 1_000_000 above reserve -> 125_000t
	assert.True(t, summary.CO2.Success)
	assert.Equal(t, int64(125_000), summary.CO2.Plan.AmountTons)

	require.Len(t, summary.Departures, 1)
	assert.True(t, summary.Departures[0].Success)
	assert.True(t, sink.HasStatusContaining("Fuel purchase failed: insufficient funds"))
}

func TestCycle_RefreshFailureKeepsOriginalFigures(t *testing.T) {
	bridge := scenarioBridge()
	bridge.MaxCO2 = 200_000
	bridge.FailSnapshotAfter = 1
	sink := helpers.NewRecordingSink()

	summary := newOrchestrator(bridge, sink).Run(context.Background(), scenarioConfig(), autopilot.CycleHooks{})

	assert.True(t, summary.Fuel.Success)
	assert.Equal(t, int64(125_000), summary.CO2.Plan.AmountTons)
	assert.True(t, sink.HasStatusContaining("Couldn't refresh bunker after Fuel purchase"))
}

func TestCycle_DepartureFailureIsIsolated(t *testing.T) {
	bridge := scenarioBridge()
	bridge.Vessels = []fleet.Vessel{
		helpers.PortVessel(1, "Aurora"),
		helpers.PortVessel(2, "Boreas"),
		{ID: 3, Name: "Calypso", Status: fleet.VesselStatusAtPort, IsParked: true, RouteDestination: "x"},
		helpers.PortVessel(4, "Delphi"),
	}
	bridge.DepartureResults[2] = fleet.DepartureOutcome{Success: false, Error: "vessel needs maintenance"}
	bridge.DepartureResults[4] = fleet.DepartureOutcome{Success: true, Income: 75_000, FuelUsedTons: 4, CO2UsedTons: 1}

	cfg := settings.Default()
	cfg.AutoDepart = true

	var recorded []fleet.DepartureOutcome
	hooks := autopilot.CycleHooks{
		OnDeparture: func(ctx context.Context, o fleet.DepartureOutcome) { recorded = append(recorded, o) },
	}

	summary := newOrchestrator(bridge, nil).Run(context.Background(), cfg, hooks)

	assert.Equal(t, 4, summary.FleetSize)
	assert.Equal(t, 3, summary.EligibleCount)
	require.Len(t, summary.Departures, 3)
	assert.False(t, summary.Departures[1].Success)
	assert.Equal(t, "Boreas", summary.Departures[1].VesselName)

	require.Len(t, recorded, 2)
	assert.Equal(t, int64(1), recorded[0].VesselID)
	assert.Equal(t, int64(4), recorded[1].VesselID)
	assert.Equal(t, 2, summary.DepartedCount())
	assert.Equal(t, 85_000.0, summary.DepartureIncome())

	departs := bridge.CallsTo("DepartVessel")
	require.Len(t, departs, 3)
	assert.Equal(t, []int64{1, 2, 4}, []int64{departs[0].VesselID, departs[1].VesselID, departs[2].VesselID})
}

func TestCycle_FleetReadFailureIsReported(t *testing.T) {
	bridge := scenarioBridge()
	bridge.FleetErr = shared.NewBridgeUnavailableError("read fleet", nil)
	sink := helpers.NewRecordingSink()

	cfg := settings.Default()
	cfg.AutoDepart = true

	summary := newOrchestrator(bridge, sink).Run(context.Background(), cfg, autopilot.CycleHooks{})

	assert.NotEmpty(t, summary.FleetError)
	assert.Empty(t, summary.Departures)
	assert.True(t, sink.HasStatusContaining("Couldn't read fleet"))
}

func TestCycle_PanicIsContained(t *testing.T) {
	bridge := scenarioBridge()
	bridge.PanicOnFleet = true
	sink := helpers.NewRecordingSink()

	cfg := scenarioConfig()
	cfg.AutoDepart = true

	var summary *autopilot.CycleSummary
	assert.NotPanics(t, func() {
		summary = newOrchestrator(bridge, sink).Run(context.Background(), cfg, autopilot.CycleHooks{})
	})

	require.NotNil(t, summary)
	assert.Equal(t, "fleet script crashed", summary.Panic)
	assert.True(t, summary.Fuel.Success, "work done before the panic is kept")
	assert.False(t, summary.FinishedAt.IsZero())
	assert.True(t, sink.HasStatusContaining("Cycle error: fleet script crashed"))
}

func TestCycle_FuelPanicStillBuysCO2AndDispatches(t *testing.T) {
	// Arrange
	bridge := scenarioBridge()
	bridge.PanicOnPurchase = bunker.CommodityFuel
	bridge.Vessels = []fleet.Vessel{helpers.PortVessel(1, "Aurora")}
	sink := helpers.NewRecordingSink()

	cfg := scenarioConfig()
	cfg.AutoDepart = true

	// Act
	var summary *autopilot.CycleSummary
	require.NotPanics(t, func() {
		summary = newOrchestrator(bridge, sink).Run(context.Background(), cfg, autopilot.CycleHooks{})
	})

	// Assert
	assert.True(t, summary.Fuel.Attempted)
	assert.False(t, summary.Fuel.Success)
	assert.Contains(t, summary.Fuel.Error, "script panicked")
	assert.Equal(t, "failed", summary.Fuel.Status())

	assert.True(t, summary.CO2.Success)
	assert.Equal(t, int64(45), summary.CO2.Plan.AmountTons)

	require.Len(t, summary.Departures, 1)
	assert.True(t, summary.Departures[0].Success)

	assert.Equal(t, "fuel purchase script crashed", summary.Panic)
	assert.True(t, sink.HasStatusContaining("Cycle error: fuel purchase script crashed"))
	assert.Len(t, sink.OfType(autopilot.EventPurchaseCompleted), 2)

	fuel, co2, _ := bridge.State()
	assert.Equal(t, 100.0, fuel)
	assert.Equal(t, 50.0, co2)
}

func TestCycle_DepartPanicFailsOnlyThatVessel(t *testing.T) {
	bridge := scenarioBridge()
	bridge.PanicOnDepart = 1
	bridge.Vessels = []fleet.Vessel{helpers.PortVessel(1, "Aurora"), helpers.PortVessel(2, "Boreas")}

	cfg := settings.Default()
	cfg.AutoDepart = true

	summary := newOrchestrator(bridge, nil).Run(context.Background(), cfg, autopilot.CycleHooks{})

	require.Len(t, summary.Departures, 2)
	assert.False(t, summary.Departures[0].Success)
	assert.Equal(t, int64(1), summary.Departures[0].VesselID)
	assert.Contains(t, summary.Departures[0].Error, "script panicked")
	assert.True(t, summary.Departures[1].Success)
	assert.Equal(t, 1, summary.DepartedCount())
	assert.Contains(t, summary.Panic, "depart script crashed for 1")
}

func TestCycle_DispatchReportsFleetBreakdown(t *testing.T) {
	bridge := scenarioBridge()
	parked := helpers.PortVessel(3, "Cygnus")
	parked.IsParked = true
	bridge.Vessels = []fleet.Vessel{
		helpers.PortVessel(1, "Aurora"),
		{ID: 2, Name: "Boreas", Status: fleet.VesselStatusOther},
		parked,
	}
	sink := helpers.NewRecordingSink()

	cfg := settings.Default()
	cfg.AutoDepart = true

	newOrchestrator(bridge, sink).Run(context.Background(), cfg, autopilot.CycleHooks{})

	assert.True(t, sink.HasStatusContaining("1 vessel(s) ready (fleet: 1 at port, 1 parked, 1 underway)"))
}

func TestCycle_CancelDuringPacingInterruptsDispatch(t *testing.T) {
	bridge := scenarioBridge()
	bridge.Vessels = []fleet.Vessel{helpers.PortVessel(1, "Aurora"), helpers.PortVessel(2, "Boreas")}

	cfg := settings.Default()
	cfg.AutoDepart = true

	ctx, cancel := context.WithCancel(context.Background())
	orchestrator := autopilot.NewCycleOrchestrator(bridge, nil, nil, time.Minute)

	hooks := autopilot.CycleHooks{
		OnDeparture: func(context.Context, fleet.DepartureOutcome) { cancel() },
	}

	start := time.Now()
	summary := orchestrator.Run(ctx, cfg, hooks)

	assert.True(t, summary.Interrupted)
	assert.Len(t, summary.Departures, 1)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCycle_PurchaseHookReceivesExecutedPlans(t *testing.T) {
	bridge := scenarioBridge()
	var plans []bunker.PurchasePlan
	hooks := autopilot.CycleHooks{
		OnPurchase: func(ctx context.Context, p bunker.PurchasePlan) { plans = append(plans, p) },
	}

	newOrchestrator(bridge, nil).Run(context.Background(), scenarioConfig(), hooks)

	require.Len(t, plans, 2)
	assert.Equal(t, bunker.CommodityFuel, plans[0].Commodity)
	assert.Equal(t, bunker.CommodityCO2, plans[1].Commodity)
}

func TestCycleSummary_Headline(t *testing.T) {
	s := &autopilot.CycleSummary{DataUnavailable: true}
	assert.Equal(t, "Couldn't read game data, is the game loaded?", s.Headline())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s = &autopilot.CycleSummary{
		StartedAt:       start,
		FinishedAt:      start.Add(1500 * time.Millisecond),
		Fuel:            autopilot.PurchaseResult{Attempted: true, Success: true},
		DispatchEnabled: true,
		EligibleCount:   2,
		Departures:      []fleet.DepartureOutcome{{Success: true, Income: 120_000}, {Success: false}},
	}
	assert.Equal(t, "Cycle done in 1.5s: fuel bought, CO2 skipped, 1/2 departed (+$120K)", s.Headline())
}

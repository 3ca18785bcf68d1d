package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
)

func TestAutopilotCollector_BunkerAndPrices(t *testing.T) {
	// Arrange
	c := NewAutopilotCollector(autopilot.NewEventBus())
	snapshot, err := bunker.NewBunkerSnapshot(120, 8.5, 1_500_000, 1000, 50, time.Now())
	require.NoError(t, err)

	// Act
	c.Observe(autopilot.Event{Type: autopilot.EventBunkerUpdated, Bunker: snapshot})
	c.Observe(autopilot.Event{
		Type:   autopilot.EventPricesUpdated,
		Prices: bunker.NewPriceQuote(bunker.Price(410), nil, "10:30", time.Now()),
	})

	// Assert
	assert.Equal(t, 120.0, testutil.ToFloat64(c.fuelTons))
	assert.Equal(t, 8.5, testutil.ToFloat64(c.co2Tons))
	assert.Equal(t, 1_500_000.0, testutil.ToFloat64(c.cash))
	assert.Equal(t, 0.12, testutil.ToFloat64(c.bunkerFill.WithLabelValues("fuel")))
	assert.Equal(t, 0.17, testutil.ToFloat64(c.bunkerFill.WithLabelValues("co2")))
	assert.Equal(t, 410.0, testutil.ToFloat64(c.fuelPrice))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.co2Price), "missing price leaves the gauge untouched")
}

func TestAutopilotCollector_Purchases(t *testing.T) {
	c := NewAutopilotCollector(autopilot.NewEventBus())
	fuel := bunker.PurchasePlan{Commodity: bunker.CommodityFuel, AmountTons: 900, UnitPrice: 400}
	co2 := bunker.PurchasePlan{Commodity: bunker.CommodityCO2, AmountTons: 45, UnitPrice: 8}

	c.Observe(autopilot.Event{Type: autopilot.EventPurchaseCompleted, Purchase: &autopilot.PurchaseResult{Plan: fuel, Attempted: true, Success: true}})
	c.Observe(autopilot.Event{Type: autopilot.EventPurchaseCompleted, Purchase: &autopilot.PurchaseResult{Plan: co2, Attempted: true, Error: "not enough cash"}})
	c.Observe(autopilot.Event{Type: autopilot.EventPurchaseCompleted, Purchase: &autopilot.PurchaseResult{Plan: co2}})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.purchasesTotal.WithLabelValues("fuel", "bought")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.purchasesTotal.WithLabelValues("co2", "failed")))
	assert.Equal(t, 900.0, testutil.ToFloat64(c.tonsPurchasedTotal.WithLabelValues("fuel")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.purchasesTotal), "skipped plans are not counted")
}

func TestAutopilotCollector_DeparturesAndCycle(t *testing.T) {
	c := NewAutopilotCollector(autopilot.NewEventBus())
	ok := fleet.DepartureOutcome{VesselID: 1, Success: true, Income: 50_000}
	failed := fleet.DepartureOutcome{VesselID: 2, Error: "vessel_not_in_port"}
	started := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	c.Observe(autopilot.Event{
		Type:      autopilot.EventDepartureRecorded,
		Departure: &ok,
		Session:   &ledger.SessionTotals{DepartureCount: 3, TotalIncome: 150_000},
	})
	c.Observe(autopilot.Event{Type: autopilot.EventCycleCompleted, Cycle: &autopilot.CycleSummary{
		StartedAt:  started,
		FinishedAt: started.Add(4 * time.Second),
		Departures: []fleet.DepartureOutcome{ok, failed},
	}})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.departuresTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.departuresTotal.WithLabelValues("failed")))
	assert.Equal(t, 50_000.0, testutil.ToFloat64(c.departureIncomeTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.sessionDepartures))
	assert.Equal(t, 150_000.0, testutil.ToFloat64(c.sessionIncome))
	assert.Equal(t, 1, testutil.CollectAndCount(c.cycleDuration))
}

func TestAutopilotCollector_SessionResetAndState(t *testing.T) {
	c := NewAutopilotCollector(autopilot.NewEventBus())
	c.sessionDepartures.Set(7)

	c.Observe(autopilot.Event{Type: autopilot.EventStatus, Message: "Session counters reset", Session: &ledger.SessionTotals{}})
	c.Observe(autopilot.Event{Type: autopilot.EventStateChanged, Transition: &controller.Transition{
		From: controller.StateAwaitingLogin,
		To:   controller.StateActive,
	}})

	assert.Equal(t, 0.0, testutil.ToFloat64(c.sessionDepartures))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.controllerState))
}

func TestAutopilotCollector_ConsumesEventBus(t *testing.T) {
	// Arrange
	bus := autopilot.NewEventBus()
	c := NewAutopilotCollector(bus)
	c.Start(context.Background())

	// Act
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	bus.Publish(autopilot.Event{Type: autopilot.EventPricesUpdated, Prices: bunker.NewPriceQuote(nil, bunker.Price(9), "", time.Now())})

	// Assert
	assert.Eventually(t, func() bool { return testutil.ToFloat64(c.co2Price) == 9 }, time.Second, 5*time.Millisecond)
	c.Stop()
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestRegister_NoOpWithoutRegistry(t *testing.T) {
	Registry = nil

	assert.NoError(t, NewAutopilotCollector(autopilot.NewEventBus()).Register())
	assert.False(t, IsEnabled())
}

func TestRegister_AddsToRegistry(t *testing.T) {
	InitRegistry()
	t.Cleanup(func() { Registry = nil })

	c := NewAutopilotCollector(autopilot.NewEventBus())
	require.NoError(t, c.Register())
	c.fuelTons.Set(1)

	count, err := testutil.GatherAndCount(Registry, "shipman_autopilot_fuel_tons")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Error(t, c.Register(), "double registration is rejected")
}

package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestSessionLedger_RecordDeparture(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	session := NewSessionLedger(clock)

	// Act
	session.RecordDeparture(fleet.DepartureOutcome{VesselID: 1, Success: true, Income: 120_000, FuelUsedTons: 12.5, CO2UsedTons: 3})
	session.RecordDeparture(fleet.DepartureOutcome{VesselID: 2, Success: false, Error: "no route"})
	totals := session.RecordDeparture(fleet.DepartureOutcome{VesselID: 3, Success: true, Income: 80_000, FuelUsedTons: 7.5, CO2UsedTons: 2})

	// Assert
	assert.Equal(t, 2, totals.DepartureCount)
	assert.Equal(t, 200_000.0, totals.TotalIncome)
	assert.Equal(t, 20.0, totals.FuelUsedTons)
	assert.Equal(t, 5.0, totals.CO2UsedTons)
	assert.Equal(t, "2 departure(s) • +$200K", totals.Summary())
	assert.Equal(t, totals, session.Snapshot())
}

func TestSessionLedger_RecordPurchase(t *testing.T) {
	session := NewSessionLedger(nil)

	session.RecordPurchase(bunker.PurchasePlan{Commodity: bunker.CommodityFuel, AmountTons: 900, UnitPrice: 400})
	session.RecordPurchase(bunker.PurchasePlan{Commodity: bunker.CommodityCO2, AmountTons: 45, UnitPrice: 8})
	totals := session.RecordPurchase(bunker.PurchasePlan{Commodity: bunker.CommodityCO2, Reason: bunker.SkipReasonBunkerFull})

	assert.Equal(t, 900.0, totals.FuelPurchasedTons)
	assert.Equal(t, 45.0, totals.CO2PurchasedTons)
	assert.Equal(t, 360_360.0, totals.BunkerSpend)
}

func TestSessionLedger_Reset(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	session := NewSessionLedger(clock)
	session.RecordDeparture(fleet.DepartureOutcome{VesselID: 1, Success: true, Income: 5_000})

	clock.Advance(time.Hour)
	totals := session.Reset()

	assert.Equal(t, 0, totals.DepartureCount)
	assert.Equal(t, 0.0, totals.TotalIncome)
	assert.Equal(t, clock.Now(), totals.StartedAt)
}

func TestSessionLedger_ConcurrentRecording(t *testing.T) {
	session := NewSessionLedger(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.RecordDeparture(fleet.DepartureOutcome{VesselID: 1, Success: true, Income: 10})
			_ = session.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, session.Snapshot().DepartureCount)
	assert.Equal(t, 500.0, session.Snapshot().TotalIncome)
}

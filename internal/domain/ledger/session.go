package ledger

import (
	"sync"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// SessionTotals is a point-in-time copy of the session counters
type SessionTotals struct {
	DepartureCount    int
	TotalIncome       float64
	FuelUsedTons      float64
	CO2UsedTons       float64
	FuelPurchasedTons float64
	CO2PurchasedTons  float64
	BunkerSpend       float64
	StartedAt         time.Time
}

// Summary renders the "N departure(s) • +$income" line
func (s SessionTotals) Summary() string {
	return utils.FormatSession(s.DepartureCount, s.TotalIncome)
}

// SessionLedger accumulates departures and purchases for the lifetime of the
// process. Only an explicit Reset clears it; stopping the controller does not.
type SessionLedger struct {
	mu     sync.RWMutex
	totals SessionTotals
	clock  shared.Clock
}

// NewSessionLedger creates an empty session starting now
func NewSessionLedger(clock shared.Clock) *SessionLedger {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SessionLedger{
		totals: SessionTotals{StartedAt: clock.Now()},
		clock:  clock,
	}
}

// RecordDeparture adds a successful departure to the session. Failed outcomes are ignored.
func (l *SessionLedger) RecordDeparture(outcome fleet.DepartureOutcome) SessionTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	if outcome.Success {
		l.totals.DepartureCount++
		l.totals.TotalIncome += outcome.Income
		l.totals.FuelUsedTons += outcome.FuelUsedTons
		l.totals.CO2UsedTons += outcome.CO2UsedTons
	}
	return l.totals
}

// RecordPurchase adds an executed purchase plan to the session
func (l *SessionLedger) RecordPurchase(plan bunker.PurchasePlan) SessionTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !plan.IsPurchase() {
		return l.totals
	}

	switch plan.Commodity {
	case bunker.CommodityFuel:
		l.totals.FuelPurchasedTons += float64(plan.AmountTons)
	case bunker.CommodityCO2:
		l.totals.CO2PurchasedTons += float64(plan.AmountTons)
	}
	l.totals.BunkerSpend += plan.EstimatedCost()
	return l.totals
}

// Snapshot returns a copy of the current totals
func (l *SessionLedger) Snapshot() SessionTotals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals
}

// Reset zeroes every counter and restarts the session clock
func (l *SessionLedger) Reset() SessionTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totals = SessionTotals{StartedAt: l.clock.Now()}
	return l.totals
}

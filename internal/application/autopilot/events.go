package autopilot

import (
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
)

// EventType identifies what an Event carries
type EventType string

const (
	EventBunkerUpdated     EventType = "BUNKER_UPDATED"
	EventPricesUpdated     EventType = "PRICES_UPDATED"
	EventPurchaseCompleted EventType = "PURCHASE_COMPLETED"
	EventDepartureRecorded EventType = "DEPARTURE_RECORDED"
	EventCycleCompleted    EventType = "CYCLE_COMPLETED"
	EventStateChanged      EventType = "STATE_CHANGED"
	EventStatus            EventType = "STATUS"
)

// Event is one notification from the controller. Only the fields relevant
// to Type are set.
type Event struct {
	Type    EventType
	At      time.Time
	CycleID string

	// STATUS
	Level   string
	Message string

	Bunker     *bunker.BunkerSnapshot
	Prices     *bunker.PriceQuote
	Purchase   *PurchaseResult
	Departure  *fleet.DepartureOutcome
	Session    *ledger.SessionTotals
	Cycle      *CycleSummary
	Transition *controller.Transition
}

// StatusSink receives controller events. Publish must not block.
type StatusSink interface {
	Publish(event Event)
}

// SinkFunc adapts a function to StatusSink
type SinkFunc func(event Event)

func (f SinkFunc) Publish(event Event) {
	f(event)
}

// MultiSink fans one event out to several sinks in order
type MultiSink []StatusSink

func (m MultiSink) Publish(event Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(event)
		}
	}
}

type noOpSink struct{}

func (noOpSink) Publish(Event) {}

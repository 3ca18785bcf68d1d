package ports

import (
	"context"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
)

// GameClientBridge defines the domain's interface for talking to the game
// through the scripted browser session.
//
// This interface is defined in the domain layer (not infrastructure) so the
// controller and cycle orchestrator stay independent of the browser driver:
//
//	┌─────────────────────────┐
//	│  Application Layer      │
//	│  (autopilot)            │
//	└───────────┬─────────────┘
//	            │ depends on
//	            ↓
//	┌─────────────────────────┐
//	│  Domain Ports           │  ← This interface
//	└───────────┬─────────────┘
//	            ↑
//	            │ implements
//	┌─────────────────────────┐
//	│  adapters/bridge        │
//	│  (playwright, gate)     │
//	└─────────────────────────┘
//
// The game offers no transactions: every call is a separate script run
// against the live page, and two consecutive reads may disagree. Purchase
// amounts are whole tons; implementations convert to the game's kilograms.
type GameClientBridge interface {
	// Session
	IsBridgeReady(ctx context.Context) bool
	IsSessionAuthenticated(ctx context.Context) bool
	AttemptLogin(ctx context.Context, email, password string) bool

	// Reads
	ReadBunkerSnapshot(ctx context.Context) (*bunker.BunkerSnapshot, error)
	ReadPriceQuote(ctx context.Context) (*bunker.PriceQuote, error)

	// ReadFleet returns the user's vessels. On failure the slice is empty and
	// the error says why; callers treat both the same way.
	ReadFleet(ctx context.Context) ([]fleet.Vessel, error)

	// Writes
	Purchase(ctx context.Context, commodity bunker.Commodity, tons int64) error
	DepartVessel(ctx context.Context, vesselID int64, speed float64, guards int) fleet.DepartureOutcome
}

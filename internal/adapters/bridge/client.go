package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ports"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// Compile-time interface check
var _ ports.GameClientBridge = (*PlaywrightBridge)(nil)

// PlaywrightBridge talks to the game through scripts evaluated in the
// operator's logged-in page. It converts between the game's kilograms and
// the controller's tons and classifies failures:
//   - script threw, page gone, timeout -> BridgeUnavailableError
//   - payload missing fields           -> DataIncompleteError
//   - game answered with an error      -> RemoteRejectionError
type PlaywrightBridge struct {
	runner ScriptRunner
	clock  shared.Clock
}

// NewPlaywrightBridge creates a bridge over runner
// If clock is nil, uses RealClock (production behavior)
func NewPlaywrightBridge(runner ScriptRunner, clock shared.Clock) *PlaywrightBridge {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &PlaywrightBridge{runner: runner, clock: clock}
}

func (b *PlaywrightBridge) eval(ctx context.Context, op, script string, arg interface{}) (interface{}, error) {
	result, err := b.runner.Evaluate(ctx, script, arg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, shared.NewBridgeUnavailableError(op, err)
	}
	return result, nil
}

func (b *PlaywrightBridge) IsBridgeReady(ctx context.Context) bool {
	result, err := b.eval(ctx, "ready check", readyScript, nil)
	return err == nil && result == true
}

func (b *PlaywrightBridge) IsSessionAuthenticated(ctx context.Context) bool {
	result, err := b.eval(ctx, "login check", authenticatedScript, nil)
	return err == nil && result == true
}

// AttemptLogin fills and submits the landing page form once. It reports
// whether the form was submitted, not whether the login succeeded.
func (b *PlaywrightBridge) AttemptLogin(ctx context.Context, email, password string) bool {
	if email == "" || password == "" {
		return false
	}
	if err := b.runner.Fill(ctx, loginEmailSelector, email); err != nil {
		return false
	}
	if err := b.runner.Fill(ctx, loginPasswordSelector, password); err != nil {
		return false
	}
	return b.runner.Click(ctx, loginSubmitSelector) == nil
}

func (b *PlaywrightBridge) ReadBunkerSnapshot(ctx context.Context) (*bunker.BunkerSnapshot, error) {
	result, err := b.eval(ctx, "read bunker", bunkerScript, nil)
	if err != nil {
		return nil, err
	}
	return parseBunker(result, b.clock.Now())
}

func (b *PlaywrightBridge) ReadPriceQuote(ctx context.Context) (*bunker.PriceQuote, error) {
	result, err := b.eval(ctx, "read prices", pricesScript, nil)
	if err != nil {
		return nil, err
	}
	return parsePrices(result, b.clock.Now())
}

func (b *PlaywrightBridge) ReadFleet(ctx context.Context) ([]fleet.Vessel, error) {
	result, err := b.eval(ctx, "read fleet", fleetScript, nil)
	if err != nil {
		return []fleet.Vessel{}, err
	}
	return parseFleet(result)
}

func (b *PlaywrightBridge) Purchase(ctx context.Context, commodity bunker.Commodity, tons int64) error {
	if float64(tons) < bunker.MinPurchaseTons {
		return shared.NewValidationError("tons", fmt.Sprintf("must be at least %.0f", bunker.MinPurchaseTons))
	}

	var path string
	switch commodity {
	case bunker.CommodityFuel:
		path = purchaseFuelPath
	case bunker.CommodityCO2:
		path = purchaseCO2Path
	default:
		return shared.NewValidationError("commodity", fmt.Sprintf("unknown commodity %q", commodity))
	}

	result, err := b.eval(ctx, "purchase "+commodity.String(), purchaseScript, map[string]interface{}{
		"path":   path,
		"amount": tons * int64(kgPerTon),
	})
	if err != nil {
		return err
	}
	return parsePurchase(result)
}

func (b *PlaywrightBridge) DepartVessel(ctx context.Context, vesselID int64, speed float64, guards int) fleet.DepartureOutcome {
	if speed <= 0 {
		speed = fleet.DefaultRouteSpeed
	}

	result, err := b.eval(ctx, "depart", departScript, map[string]interface{}{
		"user_vessel_id": vesselID,
		"speed":          speed,
		"guards":         guards,
	})
	if err != nil {
		return fleet.DepartureOutcome{VesselID: vesselID, Error: err.Error()}
	}
	return parseDeparture(result, vesselID, b.clock.Now())
}

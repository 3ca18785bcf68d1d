package bunker

import (
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// BunkerSnapshot is a point-in-time reading of the company's bunker and cash.
// Quantities are in tons, cash in game dollars. Immutable once built.
type BunkerSnapshot struct {
	FuelTons    float64
	CO2Tons     float64
	Cash        int64
	MaxFuelTons float64
	MaxCO2Tons  float64
	ReadAt      time.Time
}

// NewBunkerSnapshot validates the readings and builds a snapshot
func NewBunkerSnapshot(fuel, co2 float64, cash int64, maxFuel, maxCO2 float64, readAt time.Time) (*BunkerSnapshot, error) {
	if fuel < 0 {
		return nil, shared.NewValidationError("fuel", "cannot be negative")
	}
	if co2 < 0 {
		return nil, shared.NewValidationError("co2", "cannot be negative")
	}
	if cash < 0 {
		return nil, shared.NewValidationError("cash", "cannot be negative")
	}
	if maxFuel <= 0 {
		return nil, shared.NewValidationError("max_fuel", "must be positive")
	}
	if maxCO2 <= 0 {
		return nil, shared.NewValidationError("max_co2", "must be positive")
	}

	return &BunkerSnapshot{
		FuelTons:    fuel,
		CO2Tons:     co2,
		Cash:        cash,
		MaxFuelTons: maxFuel,
		MaxCO2Tons:  maxCO2,
		ReadAt:      readAt,
	}, nil
}

// Holding returns the tons currently held for a commodity
func (s *BunkerSnapshot) Holding(c Commodity) float64 {
	if c == CommodityCO2 {
		return s.CO2Tons
	}
	return s.FuelTons
}

// Capacity returns the bunker capacity in tons for a commodity
func (s *BunkerSnapshot) Capacity(c Commodity) float64 {
	if c == CommodityCO2 {
		return s.MaxCO2Tons
	}
	return s.MaxFuelTons
}

// Headroom returns capacity minus holding. Negative when the bunker is overfilled.
func (s *BunkerSnapshot) Headroom(c Commodity) float64 {
	return s.Capacity(c) - s.Holding(c)
}

// FillRatio returns holding/capacity in [0, 1+], or 0 without a capacity
func (s *BunkerSnapshot) FillRatio(c Commodity) float64 {
	capacity := s.Capacity(c)
	if capacity <= 0 {
		return 0
	}
	return s.Holding(c) / capacity
}

package settings

import (
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// Defaults for a fresh settings file
const (
	DefaultFuelThresholdPrice   = 500
	DefaultFuelMinCashReserve   = 1_000_000
	DefaultCO2ThresholdPrice    = 10
	DefaultCO2MinCashReserve    = 1_000_000
	DefaultCheckIntervalSeconds = 60
)

// Configuration holds the operator-owned autopilot settings.
// It is a value type: callers receive copies, never a shared reference.
type Configuration struct {
	FuelMode             bunker.Mode `mapstructure:"fuel_mode" json:"fuel_mode" yaml:"fuel_mode" validate:"oneof=off basic intelligent"`
	FuelThresholdPrice   float64     `mapstructure:"fuel_threshold" json:"fuel_threshold" yaml:"fuel_threshold" validate:"gte=0"`
	FuelMinCashReserve   int64       `mapstructure:"fuel_min_cash" json:"fuel_min_cash" yaml:"fuel_min_cash" validate:"gte=0"`
	CO2Mode              bunker.Mode `mapstructure:"co2_mode" json:"co2_mode" yaml:"co2_mode" validate:"oneof=off basic"`
	CO2ThresholdPrice    float64     `mapstructure:"co2_threshold" json:"co2_threshold" yaml:"co2_threshold" validate:"gte=0"`
	CO2MinCashReserve    int64       `mapstructure:"co2_min_cash" json:"co2_min_cash" yaml:"co2_min_cash" validate:"gte=0"`
	AutoDepart           bool        `mapstructure:"auto_depart" json:"auto_depart" yaml:"auto_depart"`
	CheckIntervalSeconds int         `mapstructure:"check_interval" json:"check_interval" yaml:"check_interval" validate:"gt=0"`
}

// Default returns the settings a new installation starts with: everything off
func Default() Configuration {
	return Configuration{
		FuelMode:             bunker.ModeOff,
		FuelThresholdPrice:   DefaultFuelThresholdPrice,
		FuelMinCashReserve:   DefaultFuelMinCashReserve,
		CO2Mode:              bunker.ModeOff,
		CO2ThresholdPrice:    DefaultCO2ThresholdPrice,
		CO2MinCashReserve:    DefaultCO2MinCashReserve,
		AutoDepart:           false,
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
	}
}

// RuleFor extracts the replenishment rule for one commodity
func (c Configuration) RuleFor(commodity bunker.Commodity) bunker.Rule {
	if commodity == bunker.CommodityCO2 {
		return bunker.Rule{
			Mode:           c.CO2Mode,
			ThresholdPrice: c.CO2ThresholdPrice,
			MinCashReserve: c.CO2MinCashReserve,
		}
	}
	return bunker.Rule{
		Mode:           c.FuelMode,
		ThresholdPrice: c.FuelThresholdPrice,
		MinCashReserve: c.FuelMinCashReserve,
	}
}

// CheckInterval returns the pause between cycles
func (c Configuration) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// AnyEnabled returns true when at least one automation is switched on
func (c Configuration) AnyEnabled() bool {
	return c.FuelMode.Enabled() || c.CO2Mode.Enabled() || c.AutoDepart
}

// Validate checks domain invariants without a struct validator
func (c Configuration) Validate() error {
	if !c.FuelMode.IsValidFor(bunker.CommodityFuel) {
		return shared.NewValidationError("fuel_mode", "must be one of off, basic, intelligent")
	}
	if !c.CO2Mode.IsValidFor(bunker.CommodityCO2) {
		return shared.NewValidationError("co2_mode", "must be one of off, basic")
	}
	if c.FuelThresholdPrice < 0 {
		return shared.NewValidationError("fuel_threshold", "cannot be negative")
	}
	if c.CO2ThresholdPrice < 0 {
		return shared.NewValidationError("co2_threshold", "cannot be negative")
	}
	if c.FuelMinCashReserve < 0 {
		return shared.NewValidationError("fuel_min_cash", "cannot be negative")
	}
	if c.CO2MinCashReserve < 0 {
		return shared.NewValidationError("co2_min_cash", "cannot be negative")
	}
	if c.CheckIntervalSeconds <= 0 {
		return shared.NewValidationError("check_interval", "must be positive")
	}
	return nil
}

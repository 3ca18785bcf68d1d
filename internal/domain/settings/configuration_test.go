package settings

import (
	"testing"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, bunker.ModeOff, cfg.FuelMode)
	assert.Equal(t, 500.0, cfg.FuelThresholdPrice)
	assert.Equal(t, int64(1_000_000), cfg.FuelMinCashReserve)
	assert.Equal(t, bunker.ModeOff, cfg.CO2Mode)
	assert.Equal(t, 10.0, cfg.CO2ThresholdPrice)
	assert.Equal(t, int64(1_000_000), cfg.CO2MinCashReserve)
	assert.False(t, cfg.AutoDepart)
	assert.Equal(t, 60*time.Second, cfg.CheckInterval())
	assert.False(t, cfg.AnyEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestRuleFor(t *testing.T) {
	cfg := Default()
	cfg.FuelMode = bunker.ModeBasic
	cfg.CO2Mode = bunker.ModeBasic
	cfg.CO2ThresholdPrice = 8

	fuel := cfg.RuleFor(bunker.CommodityFuel)
	co2 := cfg.RuleFor(bunker.CommodityCO2)

	assert.Equal(t, bunker.Rule{Mode: bunker.ModeBasic, ThresholdPrice: 500, MinCashReserve: 1_000_000}, fuel)
	assert.Equal(t, bunker.Rule{Mode: bunker.ModeBasic, ThresholdPrice: 8, MinCashReserve: 1_000_000}, co2)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"intelligent co2", func(c *Configuration) { c.CO2Mode = bunker.ModeIntelligent }},
		{"unknown fuel mode", func(c *Configuration) { c.FuelMode = "turbo" }},
		{"zero interval", func(c *Configuration) { c.CheckIntervalSeconds = 0 }},
		{"negative reserve", func(c *Configuration) { c.FuelMinCashReserve = -1 }},
		{"negative threshold", func(c *Configuration) { c.CO2ThresholdPrice = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStaticProvider_ReturnsCopy(t *testing.T) {
	provider := NewStaticProvider(Default())

	cfg := provider.Current()
	cfg.AutoDepart = true

	assert.False(t, provider.Current().AutoDepart)
}

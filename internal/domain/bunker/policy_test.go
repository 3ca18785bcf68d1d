package bunker

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshot(t *testing.T, fuel, maxFuel, co2, maxCO2 float64, cash int64) *BunkerSnapshot {
	t.Helper()
	s, err := NewBunkerSnapshot(fuel, co2, cash, maxFuel, maxCO2, time.Now())
	require.NoError(t, err)
	return s
}

func basicRule(threshold float64, reserve int64) Rule {
	return Rule{Mode: ModeBasic, ThresholdPrice: threshold, MinCashReserve: reserve}
}

func TestDecide_BuysUpToHeadroom(t *testing.T) {
	// Arrange
	policy := NewReplenishmentPolicy()
	snapshot := newSnapshot(t, 100, 1000, 5, 50, 2_000_000)
	quote := NewPriceQuote(Price(400), Price(8), "14:00", time.Now())

	// Act
	plan := policy.Decide(CommodityFuel, snapshot, quote, basicRule(500, 1_000_000))

	// Assert
	assert.Equal(t, int64(900), plan.AmountTons)
	assert.Equal(t, 400.0, plan.UnitPrice)
	assert.Equal(t, SkipReasonNone, plan.Reason)
	assert.True(t, plan.IsPurchase())
	assert.Equal(t, 360_000.0, plan.EstimatedCost())
}

func TestDecide_LimitedByCashAboveReserve(t *testing.T) {
	policy := NewReplenishmentPolicy()
	snapshot := newSnapshot(t, 0, 10_000, 0, 100, 1_100_000)
	quote := NewPriceQuote(Price(300), nil, "", time.Now())

	plan := policy.Decide(CommodityFuel, snapshot, quote, basicRule(500, 1_000_000))

	// 100_000 / 300 = 333.33 -> floor
	assert.Equal(t, int64(333), plan.AmountTons)
}

func TestDecide_SkipReasons(t *testing.T) {
	policy := NewReplenishmentPolicy()
	now := time.Now()

	tests := []struct {
		name      string
		commodity Commodity
		snapshot  *BunkerSnapshot
		quote     *PriceQuote
		rule      Rule
		want      SkipReason
	}{
		{
			name:      "mode off",
			commodity: CommodityFuel,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 5_000_000),
			quote:     NewPriceQuote(Price(100), Price(1), "", now),
			rule:      Rule{Mode: ModeOff, ThresholdPrice: 500},
			want:      SkipReasonDisabled,
		},
		{
			name:      "fuel price missing",
			commodity: CommodityFuel,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 5_000_000),
			quote:     NewPriceQuote(nil, Price(1), "", now),
			rule:      basicRule(10_000, 0),
			want:      SkipReasonNoQuote,
		},
		{
			name:      "nil quote",
			commodity: CommodityCO2,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 5_000_000),
			quote:     nil,
			rule:      basicRule(10, 0),
			want:      SkipReasonNoQuote,
		},
		{
			name:      "above threshold",
			commodity: CommodityCO2,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 5_000_000),
			quote:     NewPriceQuote(Price(400), Price(11), "", now),
			rule:      basicRule(10, 0),
			want:      SkipReasonAboveThreshold,
		},
		{
			name:      "less than a ton of headroom",
			commodity: CommodityFuel,
			snapshot:  newSnapshot(t, 999.5, 1000, 0, 50, 5_000_000),
			quote:     NewPriceQuote(Price(400), Price(8), "", now),
			rule:      basicRule(500, 0),
			want:      SkipReasonBunkerFull,
		},
		{
			name:      "overfilled bunker",
			commodity: CommodityCO2,
			snapshot:  newSnapshot(t, 0, 1000, 60, 50, 5_000_000),
			quote:     NewPriceQuote(Price(400), Price(8), "", now),
			rule:      basicRule(10, 0),
			want:      SkipReasonBunkerFull,
		},
		{
			name:      "cash below reserve",
			commodity: CommodityFuel,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 900_000),
			quote:     NewPriceQuote(Price(400), Price(8), "", now),
			rule:      basicRule(500, 1_000_000),
			want:      SkipReasonInsufficientCash,
		},
		{
			name:      "spendable cash buys less than one ton",
			commodity: CommodityFuel,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 1_000_399),
			quote:     NewPriceQuote(Price(400), Price(8), "", now),
			rule:      basicRule(500, 1_000_000),
			want:      SkipReasonInsufficientCash,
		},
		{
			name:      "zero price",
			commodity: CommodityFuel,
			snapshot:  newSnapshot(t, 0, 1000, 0, 50, 5_000_000),
			quote:     NewPriceQuote(Price(0), Price(8), "", now),
			rule:      basicRule(500, 0),
			want:      SkipReasonInsufficientCash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := policy.Decide(tt.commodity, tt.snapshot, tt.quote, tt.rule)

			assert.Equal(t, tt.want, plan.Reason)
			assert.Equal(t, int64(0), plan.AmountTons)
			assert.False(t, plan.IsPurchase())
		})
	}
}

func TestDecide_IntelligentMatchesBasic(t *testing.T) {
	policy := NewReplenishmentPolicy()
	snapshot := newSnapshot(t, 250, 1000, 5, 50, 1_300_000)
	quote := NewPriceQuote(Price(420), Price(8), "", time.Now())

	basic := policy.Decide(CommodityFuel, snapshot, quote, basicRule(500, 1_000_000))
	intelligent := policy.Decide(CommodityFuel, snapshot, quote, Rule{Mode: ModeIntelligent, ThresholdPrice: 500, MinCashReserve: 1_000_000})

	assert.Equal(t, basic, intelligent)
}

func TestDecide_Properties(t *testing.T) {
	policy := NewReplenishmentPolicy()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		capacity := 1 + rng.Float64()*5000
		holding := rng.Float64() * capacity * 1.1
		cash := rng.Int63n(5_000_000)
		reserve := rng.Int63n(3_000_000)
		price := rng.Float64() * 1000
		threshold := rng.Float64() * 1000

		snapshot := newSnapshot(t, holding, capacity, 0, 1, cash)
		quote := NewPriceQuote(Price(price), nil, "", time.Time{})
		rule := basicRule(threshold, reserve)

		plan := policy.Decide(CommodityFuel, snapshot, quote, rule)

		// Idempotence
		assert.Equal(t, plan, policy.Decide(CommodityFuel, snapshot, quote, rule))

		space := capacity - holding
		affordable := policy.Affordable(cash, reserve, price)
		shouldBuy := price <= threshold && space >= 1 && affordable >= 1

		// Threshold monotonicity
		assert.Equal(t, shouldBuy, plan.IsPurchase(), "iteration %d", i)
		if !plan.IsPurchase() {
			continue
		}

		assert.LessOrEqual(t, float64(plan.AmountTons), space)
		assert.LessOrEqual(t, float64(plan.AmountTons), affordable)

		// Cash reserve respect
		spendable := math.Max(0, float64(cash-reserve))
		assert.LessOrEqual(t, float64(plan.AmountTons)*price, spendable+1e-6)
	}
}

func TestDecide_OrderSensitivity(t *testing.T) {
	// Buying fuel first drains cash so the CO2 decision must be smaller
	// than one taken against the pre-purchase snapshot.
	policy := NewReplenishmentPolicy()
	before := newSnapshot(t, 0, 1000, 0, 100_000, 1_500_000)
	quote := NewPriceQuote(Price(450), Price(9), "", time.Now())

	fuel := policy.Decide(CommodityFuel, before, quote, basicRule(500, 1_000_000))
	require.True(t, fuel.IsPurchase())

	after := newSnapshot(t, float64(fuel.AmountTons), 1000, 0, 100_000, before.Cash-int64(fuel.EstimatedCost()))

	stale := policy.Decide(CommodityCO2, before, quote, basicRule(10, 1_000_000))
	fresh := policy.Decide(CommodityCO2, after, quote, basicRule(10, 1_000_000))

	assert.Less(t, fresh.AmountTons, stale.AmountTons)
}

func TestNewBunkerSnapshot_Validation(t *testing.T) {
	_, err := NewBunkerSnapshot(-1, 0, 0, 10, 10, time.Now())
	assert.Error(t, err)

	_, err = NewBunkerSnapshot(0, 0, -5, 10, 10, time.Now())
	assert.Error(t, err)

	_, err = NewBunkerSnapshot(0, 0, 0, 0, 10, time.Now())
	assert.Error(t, err)

	s, err := NewBunkerSnapshot(10, 2, 100, 20, 4, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Headroom(CommodityFuel))
	assert.Equal(t, 2.0, s.Headroom(CommodityCO2))
	assert.Equal(t, 0.5, s.FillRatio(CommodityCO2))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("intelligent", CommodityFuel)
	require.NoError(t, err)
	assert.Equal(t, ModeIntelligent, m)

	_, err = ParseMode("intelligent", CommodityCO2)
	assert.Error(t, err)

	_, err = ParseMode("aggressive", CommodityFuel)
	assert.Error(t, err)
}

func TestPurchasePlan_Describe(t *testing.T) {
	plan := PurchasePlan{Commodity: CommodityFuel, AmountTons: 900, UnitPrice: 400}
	assert.Equal(t, "Fuel: buying 900t @ $400/t ($360K)", plan.Describe())

	skip := PurchasePlan{Commodity: CommodityCO2, UnitPrice: 12, Threshold: 10, Reason: SkipReasonAboveThreshold}
	assert.Equal(t, "CO2: price $12/t above threshold $10/t, skipping", skip.Describe())
}

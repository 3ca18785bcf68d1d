package bunker

import "math"

// MinPurchaseTons is the smallest headroom worth buying into
const MinPurchaseTons = 1.0

// Rule is the per-commodity slice of the operator configuration
type Rule struct {
	Mode           Mode
	ThresholdPrice float64
	MinCashReserve int64
}

// ReplenishmentPolicy decides how much of a commodity to buy.
// Decide is pure: identical inputs always produce an identical plan.
type ReplenishmentPolicy struct{}

// NewReplenishmentPolicy creates a new policy
func NewReplenishmentPolicy() *ReplenishmentPolicy {
	return &ReplenishmentPolicy{}
}

// Decide maps a snapshot, quote and rule to a purchase plan.
//
// Business Rules:
//  1. mode off → skip (disabled); price absent → skip (no_quote)
//  2. price above threshold → skip (above_threshold)
//  3. headroom below one ton → skip (bunker_full)
//  4. amount = floor(min(headroom, (cash - reserve) / price)); zero → skip (insufficient_cash)
func (p *ReplenishmentPolicy) Decide(c Commodity, snapshot *BunkerSnapshot, quote *PriceQuote, rule Rule) PurchasePlan {
	plan := PurchasePlan{
		Commodity: c,
		Threshold: rule.ThresholdPrice,
	}

	if !rule.Mode.Enabled() {
		plan.Reason = SkipReasonDisabled
		return plan
	}

	price, ok := quote.PriceFor(c)
	if !ok {
		plan.Reason = SkipReasonNoQuote
		return plan
	}
	plan.UnitPrice = price

	if price > rule.ThresholdPrice {
		plan.Reason = SkipReasonAboveThreshold
		return plan
	}

	space := snapshot.Headroom(c)
	if space < MinPurchaseTons {
		plan.Reason = SkipReasonBunkerFull
		return plan
	}

	amount := int64(math.Floor(math.Min(space, p.Affordable(snapshot.Cash, rule.MinCashReserve, price))))
	if amount <= 0 {
		plan.Reason = SkipReasonInsufficientCash
		return plan
	}

	plan.AmountTons = amount
	return plan
}

// Affordable returns how many tons the cash above the reserve buys at price.
// Zero for a non-positive price.
func (p *ReplenishmentPolicy) Affordable(cash, reserve int64, price float64) float64 {
	if price <= 0 {
		return 0
	}
	spendable := cash - reserve
	if spendable < 0 {
		spendable = 0
	}
	return float64(spendable) / price
}

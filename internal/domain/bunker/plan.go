package bunker

import (
	"fmt"

	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// SkipReason explains why a plan carries no purchase
type SkipReason string

const (
	SkipReasonNone             SkipReason = ""
	SkipReasonDisabled         SkipReason = "disabled"
	SkipReasonNoQuote          SkipReason = "no_quote"
	SkipReasonAboveThreshold   SkipReason = "above_threshold"
	SkipReasonBunkerFull       SkipReason = "bunker_full"
	SkipReasonInsufficientCash SkipReason = "insufficient_cash"
)

// PurchasePlan is the outcome of a replenishment decision.
// AmountTons == 0 means no action; Reason then says why.
type PurchasePlan struct {
	Commodity  Commodity
	AmountTons int64
	UnitPrice  float64
	Threshold  float64
	Reason     SkipReason
}

// IsPurchase returns true when the plan asks for a purchase
func (p PurchasePlan) IsPurchase() bool {
	return p.AmountTons > 0
}

// EstimatedCost is the expected spend at the quoted unit price
func (p PurchasePlan) EstimatedCost() float64 {
	return float64(p.AmountTons) * p.UnitPrice
}

// Describe renders the plan as an operator status line
func (p PurchasePlan) Describe() string {
	label := p.Commodity.Label()

	switch p.Reason {
	case SkipReasonNone:
		return fmt.Sprintf("%s: buying %dt @ $%.0f/t (%s)", label, p.AmountTons, p.UnitPrice, utils.FormatCash(p.EstimatedCost()))
	case SkipReasonDisabled:
		return fmt.Sprintf("%s: auto-rebuy disabled", label)
	case SkipReasonNoQuote:
		return fmt.Sprintf("%s: no price available, skipping", label)
	case SkipReasonAboveThreshold:
		return fmt.Sprintf("%s: price $%.0f/t above threshold $%.0f/t, skipping", label, p.UnitPrice, p.Threshold)
	case SkipReasonBunkerFull:
		return fmt.Sprintf("%s: bunker full, skipping", label)
	case SkipReasonInsufficientCash:
		return fmt.Sprintf("%s: not enough cash above reserve, skipping", label)
	default:
		return fmt.Sprintf("%s: skipped (%s)", label, p.Reason)
	}
}

package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
)

type replenishmentContext struct {
	fuel, co2       float64
	maxFuel, maxCO2 float64
	cash            int64

	prices map[bunker.Commodity]*float64
	rules  map[bunker.Commodity]bunker.Rule

	plan bunker.PurchasePlan
}

func (rc *replenishmentContext) reset() {
	rc.fuel, rc.co2 = 0, 0
	rc.maxFuel, rc.maxCO2 = 1000, 50
	rc.cash = 0
	rc.prices = make(map[bunker.Commodity]*float64)
	rc.rules = make(map[bunker.Commodity]bunker.Rule)
	rc.plan = bunker.PurchasePlan{}
}

// Given steps

func (rc *replenishmentContext) aBunkerHolding(fuel, co2 float64) error {
	rc.fuel, rc.co2 = fuel, co2
	return nil
}

func (rc *replenishmentContext) aBunkerCapacityOf(maxFuel, maxCO2 float64) error {
	rc.maxFuel, rc.maxCO2 = maxFuel, maxCO2
	return nil
}

func (rc *replenishmentContext) companyCashOf(cash int64) error {
	rc.cash = cash
	return nil
}

func (rc *replenishmentContext) theRuleIs(commodity, mode string, threshold float64, reserve int64) error {
	c, err := bunker.ParseCommodity(commodity)
	if err != nil {
		return err
	}
	m, err := bunker.ParseMode(mode, c)
	if err != nil {
		return err
	}
	rc.rules[c] = bunker.Rule{Mode: m, ThresholdPrice: threshold, MinCashReserve: reserve}
	return nil
}

func (rc *replenishmentContext) thePriceIs(commodity string, price float64) error {
	c, err := bunker.ParseCommodity(commodity)
	if err != nil {
		return err
	}
	rc.prices[c] = bunker.Price(price)
	return nil
}

func (rc *replenishmentContext) thereIsNoPrice(commodity string) error {
	c, err := bunker.ParseCommodity(commodity)
	if err != nil {
		return err
	}
	rc.prices[c] = nil
	return nil
}

// When steps

func (rc *replenishmentContext) thePolicyDecidesFor(commodity string) error {
	c, err := bunker.ParseCommodity(commodity)
	if err != nil {
		return err
	}
	snapshot, err := bunker.NewBunkerSnapshot(rc.fuel, rc.co2, rc.cash, rc.maxFuel, rc.maxCO2, time.Now())
	if err != nil {
		return err
	}
	quote := bunker.NewPriceQuote(rc.prices[bunker.CommodityFuel], rc.prices[bunker.CommodityCO2], "12:00", time.Now())

	rc.plan = bunker.NewReplenishmentPolicy().Decide(c, snapshot, quote, rc.rules[c])
	return nil
}

// Then steps

func (rc *replenishmentContext) thePlanBuys(tons int64) error {
	if rc.plan.AmountTons != tons {
		return fmt.Errorf("expected plan to buy %dt, got %dt (reason %q)", tons, rc.plan.AmountTons, rc.plan.Reason)
	}
	if rc.plan.Reason != bunker.SkipReasonNone {
		return fmt.Errorf("expected no skip reason, got %q", rc.plan.Reason)
	}
	return nil
}

func (rc *replenishmentContext) thePlanUnitPriceIs(price float64) error {
	if rc.plan.UnitPrice != price {
		return fmt.Errorf("expected unit price %.0f, got %.0f", price, rc.plan.UnitPrice)
	}
	return nil
}

func (rc *replenishmentContext) thePlanIsSkippedBecause(reason string) error {
	if rc.plan.IsPurchase() {
		return fmt.Errorf("expected a skip, plan buys %dt", rc.plan.AmountTons)
	}
	if string(rc.plan.Reason) != reason {
		return fmt.Errorf("expected skip reason %q, got %q", reason, rc.plan.Reason)
	}
	return nil
}

func (rc *replenishmentContext) theStatusLineReads(expected string) error {
	if got := rc.plan.Describe(); got != expected {
		return fmt.Errorf("expected status line %q, got %q", expected, got)
	}
	return nil
}

func InitializeReplenishmentPolicyScenario(ctx *godog.ScenarioContext) {
	rc := &replenishmentContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a bunker holding ([\d.]+)t of fuel and ([\d.]+)t of CO2$`, rc.aBunkerHolding)
	ctx.Step(`^a bunker capacity of ([\d.]+)t fuel and ([\d.]+)t CO2$`, rc.aBunkerCapacityOf)
	ctx.Step(`^company cash of \$(\d+)$`, rc.companyCashOf)
	ctx.Step(`^the (fuel|co2) rule is "([^"]*)" with threshold \$([\d.]+) and reserve \$(\d+)$`, rc.theRuleIs)
	ctx.Step(`^the (fuel|co2) price is \$([\d.]+)$`, rc.thePriceIs)
	ctx.Step(`^there is no (fuel|co2) price$`, rc.thereIsNoPrice)

	// When steps
	ctx.Step(`^the policy decides for (fuel|co2)$`, rc.thePolicyDecidesFor)

	// Then steps
	ctx.Step(`^the plan buys (\d+) tons$`, rc.thePlanBuys)
	ctx.Step(`^the plan unit price is \$([\d.]+)$`, rc.thePlanUnitPriceIs)
	ctx.Step(`^the plan is skipped because "([^"]*)"$`, rc.thePlanIsSkippedBecause)
	ctx.Step(`^the status line reads "([^"]*)"$`, rc.theStatusLineReads)
}

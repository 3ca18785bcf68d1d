package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// The game stores bunker quantities in kilograms
const (
	kgPerTon           = 1000.0
	defaultMaxBunkerKg = 1_000_000.0
)

type rawBunker struct {
	Fuel    float64  `json:"fuel"`
	CO2     float64  `json:"co2"`
	Cash    float64  `json:"cash"`
	MaxFuel *float64 `json:"max_fuel"`
	MaxCO2  *float64 `json:"max_co2"`
}

type rawPriceSlot struct {
	Time      string   `json:"time"`
	FuelPrice *float64 `json:"fuel_price"`
	CO2Price  *float64 `json:"co2_price"`
}

type rawPrices struct {
	Prices         []rawPriceSlot `json:"prices"`
	DiscountedFuel *float64       `json:"discounted_fuel"`
	DiscountedCO2  *float64       `json:"discounted_co2"`
}

type rawVessel struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Status           string          `json:"status"`
	IsParked         bool            `json:"is_parked"`
	RouteDestination json.RawMessage `json:"route_destination"`
	RouteSpeed       *float64        `json:"route_speed"`
	RouteGuards      *int            `json:"route_guards"`
}

type rawPurchase struct {
	OK    bool    `json:"ok"`
	Error *string `json:"error"`
}

type rawDepartInfo struct {
	DepartIncome float64 `json:"depart_income"`
	FuelUsage    float64 `json:"fuel_usage"`
	CO2Emission  float64 `json:"co2_emission"`
	HarborFee    float64 `json:"harbor_fee"`
}

type rawDepart struct {
	Data *struct {
		DepartInfo *rawDepartInfo `json:"depart_info"`
	} `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decode re-shapes a script result into a typed struct
func decode(raw interface{}, v interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func parseBunker(raw interface{}, readAt time.Time) (*bunker.BunkerSnapshot, error) {
	if raw == nil {
		return nil, shared.NewDataIncompleteError("bunker", "user store not available")
	}

	var b rawBunker
	if err := decode(raw, &b); err != nil {
		return nil, shared.NewDataIncompleteError("bunker", err.Error())
	}

	maxFuel, maxCO2 := defaultMaxBunkerKg, defaultMaxBunkerKg
	if b.MaxFuel != nil && *b.MaxFuel > 0 {
		maxFuel = *b.MaxFuel
	}
	if b.MaxCO2 != nil && *b.MaxCO2 > 0 {
		maxCO2 = *b.MaxCO2
	}

	snapshot, err := bunker.NewBunkerSnapshot(
		b.Fuel/kgPerTon,
		b.CO2/kgPerTon,
		int64(b.Cash),
		maxFuel/kgPerTon,
		maxCO2/kgPerTon,
		readAt,
	)
	if err != nil {
		return nil, shared.NewDataIncompleteError("bunker", err.Error())
	}
	return snapshot, nil
}

// priceSlot names the half-hour UTC slot containing t, e.g. "09:30"
func priceSlot(t time.Time) string {
	t = t.UTC()
	minute := 0
	if t.Minute() >= 30 {
		minute = 30
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), minute)
}

// parsePrices picks the current slot, falling back to the first entry.
// Discounted prices override the slot price.
func parsePrices(raw interface{}, readAt time.Time) (*bunker.PriceQuote, error) {
	if raw == nil {
		return nil, shared.NewDataIncompleteError("prices", "empty response")
	}

	var p rawPrices
	if err := decode(raw, &p); err != nil {
		return nil, shared.NewDataIncompleteError("prices", err.Error())
	}
	if len(p.Prices) == 0 {
		return nil, shared.NewDataIncompleteError("prices", "no price slots")
	}

	slot := priceSlot(readAt)
	entry := p.Prices[0]
	for _, candidate := range p.Prices {
		if candidate.Time == slot {
			entry = candidate
			break
		}
	}

	fuel, co2 := entry.FuelPrice, entry.CO2Price
	if p.DiscountedFuel != nil {
		fuel = p.DiscountedFuel
	}
	if p.DiscountedCO2 != nil {
		co2 = p.DiscountedCO2
	}

	return bunker.NewPriceQuote(fuel, co2, entry.Time, readAt), nil
}

func parseFleet(raw interface{}) ([]fleet.Vessel, error) {
	if raw == nil {
		return []fleet.Vessel{}, nil
	}

	var vessels []rawVessel
	if err := decode(raw, &vessels); err != nil {
		return []fleet.Vessel{}, shared.NewDataIncompleteError("fleet", err.Error())
	}

	out := make([]fleet.Vessel, 0, len(vessels))
	for _, v := range vessels {
		speed := fleet.DefaultRouteSpeed
		if v.RouteSpeed != nil && *v.RouteSpeed > 0 {
			speed = *v.RouteSpeed
		}
		guards := 0
		if v.RouteGuards != nil {
			guards = *v.RouteGuards
		}
		out = append(out, fleet.Vessel{
			ID:               v.ID,
			Name:             v.Name,
			Status:           fleet.ParseVesselStatus(v.Status),
			IsParked:         v.IsParked,
			RouteDestination: destination(v.RouteDestination),
			RouteSpeed:       speed,
			RouteGuards:      guards,
		})
	}
	return out, nil
}

// destination flattens the route destination, which the game sends either
// as a port code or as an object, into a non-empty string when present
func destination(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", `""`, "false", "0":
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return trimmed
}

func parsePurchase(raw interface{}) error {
	var p rawPurchase
	if err := decode(raw, &p); err != nil {
		return shared.NewDataIncompleteError("purchase", err.Error())
	}
	if p.OK {
		return nil
	}
	reason := "failed"
	if p.Error != nil && *p.Error != "" {
		reason = *p.Error
	}
	return shared.NewRemoteRejectionError("purchase", reason)
}

func parseDeparture(raw interface{}, vessel int64, departedAt time.Time) fleet.DepartureOutcome {
	var d rawDepart
	if err := decode(raw, &d); err != nil {
		return fleet.DepartureOutcome{VesselID: vessel, Error: fmt.Sprintf("unreadable response: %v", err)}
	}

	if d.Data == nil || d.Data.DepartInfo == nil {
		reason := d.Error
		if reason == "" {
			reason = d.Message
		}
		if reason == "" {
			reason = "unknown"
		}
		return fleet.DepartureOutcome{VesselID: vessel, Error: reason}
	}

	info := d.Data.DepartInfo
	return fleet.DepartureOutcome{
		VesselID:     vessel,
		Success:      true,
		Income:       info.DepartIncome,
		FuelUsedTons: info.FuelUsage / kgPerTon,
		CO2UsedTons:  info.CO2Emission / kgPerTon,
		HarborFee:    info.HarborFee,
		DepartedAt:   departedAt,
	}
}

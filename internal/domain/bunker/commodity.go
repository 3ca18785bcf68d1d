package bunker

import "fmt"

// Commodity is one of the two consumables held in the company bunker
type Commodity string

const (
	// CommodityFuel is bunker fuel, burned by every departure
	CommodityFuel Commodity = "fuel"

	// CommodityCO2 is the emissions allowance consumed by departures
	CommodityCO2 Commodity = "co2"
)

// AllCommodities returns the commodities in the order a cycle decides them
func AllCommodities() []Commodity {
	return []Commodity{CommodityFuel, CommodityCO2}
}

func (c Commodity) String() string {
	return string(c)
}

// Label returns the display name used in status lines
func (c Commodity) Label() string {
	switch c {
	case CommodityFuel:
		return "Fuel"
	case CommodityCO2:
		return "CO2"
	default:
		return string(c)
	}
}

func (c Commodity) IsValid() bool {
	return c == CommodityFuel || c == CommodityCO2
}

// ParseCommodity parses a string into a Commodity
func ParseCommodity(s string) (Commodity, error) {
	c := Commodity(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid commodity: %s", s)
	}
	return c, nil
}

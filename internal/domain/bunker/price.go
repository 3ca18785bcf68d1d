package bunker

import "time"

// PriceQuote holds the current per-ton prices. Either side may be absent
// when the remote price list had no usable entry for it.
type PriceQuote struct {
	FuelPerTon *float64
	CO2PerTon  *float64

	// Slot is the half-hour UTC slot ("14:30") the prices were taken from
	Slot   string
	ReadAt time.Time
}

// NewPriceQuote builds a quote from optional prices
func NewPriceQuote(fuel, co2 *float64, slot string, readAt time.Time) *PriceQuote {
	return &PriceQuote{
		FuelPerTon: fuel,
		CO2PerTon:  co2,
		Slot:       slot,
		ReadAt:     readAt,
	}
}

// PriceFor returns the price of a commodity and whether it is present
func (q *PriceQuote) PriceFor(c Commodity) (float64, bool) {
	if q == nil {
		return 0, false
	}

	var p *float64
	switch c {
	case CommodityFuel:
		p = q.FuelPerTon
	case CommodityCO2:
		p = q.CO2PerTon
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Price is a helper for building optional prices
func Price(v float64) *float64 {
	return &v
}

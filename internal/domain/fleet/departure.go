package fleet

import "time"

// DepartureOutcome is the result of one departure request.
// Usage figures are in tons; Error is set only when Success is false.
type DepartureOutcome struct {
	VesselID     int64
	VesselName   string
	Success      bool
	Income       float64
	FuelUsedTons float64
	CO2UsedTons  float64
	HarborFee    float64
	Error        string
	DepartedAt   time.Time
}

// NetIncome is income minus the harbor fee
func (o DepartureOutcome) NetIncome() float64 {
	return o.Income - o.HarborFee
}

// FailedDeparture builds an unsuccessful outcome
func FailedDeparture(v Vessel, reason string) DepartureOutcome {
	if reason == "" {
		reason = "unknown error"
	}
	return DepartureOutcome{
		VesselID:   v.ID,
		VesselName: v.Name,
		Success:    false,
		Error:      reason,
	}
}

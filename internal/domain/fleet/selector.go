package fleet

// Selector implements departure selection business logic
type Selector struct{}

// NewSelector creates a new fleet selector
func NewSelector() *Selector {
	return &Selector{}
}

// SelectDepartureEligible returns the vessels that may depart this cycle.
//
// Business Rules:
// 1. Vessel must be at port
// 2. Vessel must not be parked
// 3. Vessel must have a route destination
//
// Input order is preserved. Never returns nil.
func (s *Selector) SelectDepartureEligible(vessels []Vessel) []Vessel {
	eligible := make([]Vessel, 0, len(vessels))
	for _, v := range vessels {
		if v.IsDepartureEligible() {
			eligible = append(eligible, v)
		}
	}
	return eligible
}

// CountByStatus groups vessels for the fleet summary line
func (s *Selector) CountByStatus(vessels []Vessel) (atPort, parked, underway int) {
	for _, v := range vessels {
		switch {
		case v.IsParked:
			parked++
		case v.Status == VesselStatusAtPort:
			atPort++
		default:
			underway++
		}
	}
	return atPort, parked, underway
}

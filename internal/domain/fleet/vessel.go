package fleet

import "strconv"

// VesselStatus is the coarse location state of a vessel
type VesselStatus string

const (
	VesselStatusAtPort VesselStatus = "port"
	VesselStatusOther  VesselStatus = "other"
)

// DefaultRouteSpeed is used when the game omits route_speed
const DefaultRouteSpeed = 20.0

// ParseVesselStatus maps the remote status string to a VesselStatus.
// Anything other than "port" (enroute, maintenance, pending, ...) is Other.
func ParseVesselStatus(s string) VesselStatus {
	if s == string(VesselStatusAtPort) {
		return VesselStatusAtPort
	}
	return VesselStatusOther
}

// Vessel is the subset of a user vessel the controller needs to decide a departure
type Vessel struct {
	ID               int64
	Name             string
	Status           VesselStatus
	IsParked         bool
	RouteDestination string
	RouteSpeed       float64
	RouteGuards      int
}

// HasRoute returns true when the vessel has an assigned destination
func (v Vessel) HasRoute() bool {
	return v.RouteDestination != ""
}

// IsDepartureEligible returns true iff the vessel is at port, not parked and has a route
func (v Vessel) IsDepartureEligible() bool {
	return v.Status == VesselStatusAtPort && !v.IsParked && v.HasRoute()
}

// DisplayName returns the vessel name, falling back to its ID
func (v Vessel) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return "vessel " + strconv.FormatInt(v.ID, 10)
}

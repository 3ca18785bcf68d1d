package helpers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	domainPorts "github.com/andrescamacho/shippingmanager-go/internal/domain/ports"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// Compile-time interface check
var _ domainPorts.GameClientBridge = (*MockBridge)(nil)

// BridgeCall records one call made against the MockBridge
type BridgeCall struct {
	Method    string
	Commodity bunker.Commodity
	Tons      int64
	VesselID  int64
}

// MockBridge is a test double for GameClientBridge that simulates the game:
// purchases add to the bunker and deduct cash, departures burn fuel and CO2.
type MockBridge struct {
	mu sync.Mutex

	// Game state
	Fuel    float64
	CO2     float64
	Cash    int64
	MaxFuel float64
	MaxCO2  float64

	FuelPrice *float64
	CO2Price  *float64

	Vessels []fleet.Vessel

	// Departure results by vessel ID; missing entries succeed with DefaultIncome
	DepartureResults map[int64]fleet.DepartureOutcome
	DefaultIncome    float64

	// Session simulation
	ReadyAfter    int // IsBridgeReady returns true from this call number on (0 = always)
	LoginAfter    int // IsSessionAuthenticated returns true from this call number on (0 = always)
	NeverReady    bool
	NeverLoggedIn bool
	LoginSucceeds bool

	// Error injection
	SnapshotErr       error
	QuoteErr          error
	FleetErr          error
	PurchaseErr       map[bunker.Commodity]error
	FailSnapshotAfter int // snapshot reads beyond this count fail (0 = never)

	// PurchaseDelay holds every purchase call, useful for exclusion tests
	PurchaseDelay time.Duration

	// PanicOnFleet makes ReadFleet panic
	PanicOnFleet bool
	// PanicOnPurchase makes Purchase panic for this commodity
	PanicOnPurchase bunker.Commodity
	// PanicOnDepart makes DepartVessel panic for this vessel ID
	PanicOnDepart int64

	calls         []BridgeCall
	readyPolls    int
	loginPolls    int
	snapshotReads int
	loginAttempts int
	loggedIn      bool

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

// NewMockBridge creates a bridge with an empty fleet and no prices
func NewMockBridge() *MockBridge {
	return &MockBridge{
		MaxFuel:          1000,
		MaxCO2:           50,
		DepartureResults: make(map[int64]fleet.DepartureOutcome),
		PurchaseErr:      make(map[bunker.Commodity]error),
		DefaultIncome:    10_000,
	}
}

// SetPrices sets both prices; pass nil for an absent price
func (m *MockBridge) SetPrices(fuel, co2 *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FuelPrice = fuel
	m.CO2Price = co2
}

// Calls returns a copy of all recorded calls
func (m *MockBridge) Calls() []BridgeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]BridgeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls to one method
func (m *MockBridge) CallsTo(method string) []BridgeCall {
	var out []BridgeCall
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// WriteCount returns the number of Purchase and DepartVessel calls
func (m *MockBridge) WriteCount() int {
	return len(m.CallsTo("Purchase")) + len(m.CallsTo("DepartVessel"))
}

// LoginAttempts returns how often AttemptLogin was called
func (m *MockBridge) LoginAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginAttempts
}

// MaxConcurrentCalls returns the highest number of overlapping calls seen
func (m *MockBridge) MaxConcurrentCalls() int {
	return int(m.maxInflight.Load())
}

// State returns the current simulated cash and holdings
func (m *MockBridge) State() (fuel, co2 float64, cash int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fuel, m.CO2, m.Cash
}

func (m *MockBridge) enter(call BridgeCall) func() {
	n := m.inflight.Add(1)
	for {
		cur := m.maxInflight.Load()
		if n <= cur || m.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	return func() { m.inflight.Add(-1) }
}

func (m *MockBridge) IsBridgeReady(ctx context.Context) bool {
	defer m.enter(BridgeCall{Method: "IsBridgeReady"})()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readyPolls++
	if m.NeverReady {
		return false
	}
	return m.readyPolls >= m.ReadyAfter
}

func (m *MockBridge) IsSessionAuthenticated(ctx context.Context) bool {
	defer m.enter(BridgeCall{Method: "IsSessionAuthenticated"})()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loginPolls++
	if m.loggedIn {
		return true
	}
	if m.NeverLoggedIn {
		return false
	}
	return m.loginPolls >= m.LoginAfter
}

func (m *MockBridge) AttemptLogin(ctx context.Context, email, password string) bool {
	defer m.enter(BridgeCall{Method: "AttemptLogin"})()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loginAttempts++
	if m.LoginSucceeds {
		m.loggedIn = true
	}
	return m.LoginSucceeds
}

func (m *MockBridge) ReadBunkerSnapshot(ctx context.Context) (*bunker.BunkerSnapshot, error) {
	defer m.enter(BridgeCall{Method: "ReadBunkerSnapshot"})()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshotReads++
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	if m.FailSnapshotAfter > 0 && m.snapshotReads > m.FailSnapshotAfter {
		return nil, shared.NewBridgeUnavailableError("read bunker", errors.New("page navigating"))
	}
	return bunker.NewBunkerSnapshot(m.Fuel, m.CO2, m.Cash, m.MaxFuel, m.MaxCO2, time.Now())
}

func (m *MockBridge) ReadPriceQuote(ctx context.Context) (*bunker.PriceQuote, error) {
	defer m.enter(BridgeCall{Method: "ReadPriceQuote"})()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	return bunker.NewPriceQuote(m.FuelPrice, m.CO2Price, "12:00", time.Now()), nil
}

func (m *MockBridge) ReadFleet(ctx context.Context) ([]fleet.Vessel, error) {
	defer m.enter(BridgeCall{Method: "ReadFleet"})()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PanicOnFleet {
		panic("fleet script crashed")
	}
	if m.FleetErr != nil {
		return []fleet.Vessel{}, m.FleetErr
	}
	out := make([]fleet.Vessel, len(m.Vessels))
	copy(out, m.Vessels)
	return out, nil
}

func (m *MockBridge) Purchase(ctx context.Context, commodity bunker.Commodity, tons int64) error {
	defer m.enter(BridgeCall{Method: "Purchase", Commodity: commodity, Tons: tons})()

	if m.PurchaseDelay > 0 {
		time.Sleep(m.PurchaseDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PanicOnPurchase != "" && m.PanicOnPurchase == commodity {
		panic(fmt.Sprintf("%s purchase script crashed", commodity))
	}
	if err := m.PurchaseErr[commodity]; err != nil {
		return err
	}

	var price *float64
	switch commodity {
	case bunker.CommodityFuel:
		price = m.FuelPrice
	case bunker.CommodityCO2:
		price = m.CO2Price
	}
	if price == nil {
		return shared.NewRemoteRejectionError("purchase", "no price")
	}

	cost := int64(float64(tons) * *price)
	if cost > m.Cash {
		return shared.NewRemoteRejectionError("purchase", "not enough cash")
	}
	m.Cash -= cost

	switch commodity {
	case bunker.CommodityFuel:
		m.Fuel += float64(tons)
	case bunker.CommodityCO2:
		m.CO2 += float64(tons)
	}
	return nil
}

func (m *MockBridge) DepartVessel(ctx context.Context, vesselID int64, speed float64, guards int) fleet.DepartureOutcome {
	defer m.enter(BridgeCall{Method: "DepartVessel", VesselID: vesselID})()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PanicOnDepart != 0 && m.PanicOnDepart == vesselID {
		panic(fmt.Sprintf("depart script crashed for %d", vesselID))
	}

	if result, ok := m.DepartureResults[vesselID]; ok {
		result.VesselID = vesselID
		if result.Success {
			m.Cash += int64(result.Income)
		}
		return result
	}

	m.Cash += int64(m.DefaultIncome)
	return fleet.DepartureOutcome{
		VesselID:     vesselID,
		Success:      true,
		Income:       m.DefaultIncome,
		FuelUsedTons: 1,
		CO2UsedTons:  0.5,
	}
}

// PortVessel builds a departure-eligible vessel
func PortVessel(id int64, name string) fleet.Vessel {
	return fleet.Vessel{
		ID:               id,
		Name:             name,
		Status:           fleet.VesselStatusAtPort,
		RouteDestination: fmt.Sprintf("route-%d", id),
		RouteSpeed:       fleet.DefaultRouteSpeed,
	}
}

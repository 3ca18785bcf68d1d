package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
)

// BunkerView is the wire form of a bunker snapshot
type BunkerView struct {
	FuelTons    float64   `json:"fuel_tons"`
	CO2Tons     float64   `json:"co2_tons"`
	Cash        int64     `json:"cash"`
	MaxFuelTons float64   `json:"max_fuel_tons"`
	MaxCO2Tons  float64   `json:"max_co2_tons"`
	ReadAt      time.Time `json:"read_at"`
}

// PricesView is the wire form of a price quote. Absent prices stay nil.
type PricesView struct {
	FuelPrice *float64  `json:"fuel_price,omitempty"`
	CO2Price  *float64  `json:"co2_price,omitempty"`
	Slot      string    `json:"slot"`
	ReadAt    time.Time `json:"read_at"`
}

type SessionView struct {
	DepartureCount    int       `json:"departure_count"`
	TotalIncome       float64   `json:"total_income"`
	FuelUsedTons      float64   `json:"fuel_used_tons"`
	CO2UsedTons       float64   `json:"co2_used_tons"`
	FuelPurchasedTons float64   `json:"fuel_purchased_tons"`
	CO2PurchasedTons  float64   `json:"co2_purchased_tons"`
	BunkerSpend       float64   `json:"bunker_spend"`
	StartedAt         time.Time `json:"started_at"`
	Summary           string    `json:"summary"`
}

type PurchaseView struct {
	Commodity  string  `json:"commodity"`
	AmountTons int64   `json:"amount_tons"`
	UnitPrice  float64 `json:"unit_price"`
	Threshold  float64 `json:"threshold"`
	Reason     string  `json:"reason,omitempty"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
}

type DepartureView struct {
	VesselID     int64     `json:"vessel_id"`
	VesselName   string    `json:"vessel_name"`
	Success      bool      `json:"success"`
	Income       float64   `json:"income"`
	FuelUsedTons float64   `json:"fuel_used_tons"`
	CO2UsedTons  float64   `json:"co2_used_tons"`
	HarborFee    float64   `json:"harbor_fee"`
	Error        string    `json:"error,omitempty"`
	DepartedAt   time.Time `json:"departed_at"`
}

// CycleView is the wire form of a cycle summary
type CycleView struct {
	CycleID         string          `json:"cycle_id"`
	Trigger         string          `json:"trigger"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	DurationMs      int64           `json:"duration_ms"`
	DataUnavailable bool            `json:"data_unavailable"`
	DataError       string          `json:"data_error,omitempty"`
	Bunker          *BunkerView     `json:"bunker,omitempty"`
	Prices          *PricesView     `json:"prices,omitempty"`
	Fuel            PurchaseView    `json:"fuel"`
	CO2             PurchaseView    `json:"co2"`
	DispatchEnabled bool            `json:"dispatch_enabled"`
	FleetError      string          `json:"fleet_error,omitempty"`
	FleetSize       int             `json:"fleet_size"`
	EligibleCount   int             `json:"eligible_count"`
	DepartedCount   int             `json:"departed_count"`
	Departures      []DepartureView `json:"departures"`
	Interrupted     bool            `json:"interrupted"`
	Panic           string          `json:"panic,omitempty"`
	Headline        string          `json:"headline"`
}

// StatusView is the payload of Status, Start, Stop and ResetSession
type StatusView struct {
	State        string                 `json:"state"`
	UpdatedAt    time.Time              `json:"updated_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	StoppedAt    *time.Time             `json:"stopped_at,omitempty"`
	LastError    string                 `json:"last_error,omitempty"`
	Session      SessionView            `json:"session"`
	LastCycle    *CycleView             `json:"last_cycle,omitempty"`
	Settings     settings.Configuration `json:"settings"`
	CircuitState string                 `json:"circuit_state,omitempty"`
}

// RefreshView is the payload of Refresh
type RefreshView struct {
	Bunker *BunkerView `json:"bunker,omitempty"`
	Prices *PricesView `json:"prices,omitempty"`
}

// EventView is one streamed controller event
type EventView struct {
	Type      string         `json:"type"`
	At        time.Time      `json:"at"`
	CycleID   string         `json:"cycle_id,omitempty"`
	Level     string         `json:"level,omitempty"`
	Message   string         `json:"message,omitempty"`
	Bunker    *BunkerView    `json:"bunker,omitempty"`
	Prices    *PricesView    `json:"prices,omitempty"`
	Purchase  *PurchaseView  `json:"purchase,omitempty"`
	Departure *DepartureView `json:"departure,omitempty"`
	Session   *SessionView   `json:"session,omitempty"`
	Cycle     *CycleView     `json:"cycle,omitempty"`
	FromState string         `json:"from_state,omitempty"`
	ToState   string         `json:"to_state,omitempty"`
}

func bunkerView(s *bunker.BunkerSnapshot) *BunkerView {
	if s == nil {
		return nil
	}
	return &BunkerView{
		FuelTons:    s.FuelTons,
		CO2Tons:     s.CO2Tons,
		Cash:        s.Cash,
		MaxFuelTons: s.MaxFuelTons,
		MaxCO2Tons:  s.MaxCO2Tons,
		ReadAt:      s.ReadAt,
	}
}

func pricesView(q *bunker.PriceQuote) *PricesView {
	if q == nil {
		return nil
	}
	return &PricesView{
		FuelPrice: q.FuelPerTon,
		CO2Price:  q.CO2PerTon,
		Slot:      q.Slot,
		ReadAt:    q.ReadAt,
	}
}

func sessionView(t ledger.SessionTotals) SessionView {
	return SessionView{
		DepartureCount:    t.DepartureCount,
		TotalIncome:       t.TotalIncome,
		FuelUsedTons:      t.FuelUsedTons,
		CO2UsedTons:       t.CO2UsedTons,
		FuelPurchasedTons: t.FuelPurchasedTons,
		CO2PurchasedTons:  t.CO2PurchasedTons,
		BunkerSpend:       t.BunkerSpend,
		StartedAt:         t.StartedAt,
		Summary:           t.Summary(),
	}
}

func purchaseView(r autopilot.PurchaseResult) PurchaseView {
	return PurchaseView{
		Commodity:  r.Plan.Commodity.String(),
		AmountTons: r.Plan.AmountTons,
		UnitPrice:  r.Plan.UnitPrice,
		Threshold:  r.Plan.Threshold,
		Reason:     string(r.Plan.Reason),
		Status:     r.Status(),
		Error:      r.Error,
	}
}

func departureView(o fleet.DepartureOutcome) DepartureView {
	return DepartureView{
		VesselID:     o.VesselID,
		VesselName:   o.VesselName,
		Success:      o.Success,
		Income:       o.Income,
		FuelUsedTons: o.FuelUsedTons,
		CO2UsedTons:  o.CO2UsedTons,
		HarborFee:    o.HarborFee,
		Error:        o.Error,
		DepartedAt:   o.DepartedAt,
	}
}

func cycleView(s *autopilot.CycleSummary) *CycleView {
	if s == nil {
		return nil
	}
	departures := make([]DepartureView, 0, len(s.Departures))
	for _, d := range s.Departures {
		departures = append(departures, departureView(d))
	}
	return &CycleView{
		CycleID:         s.CycleID,
		Trigger:         string(s.Trigger),
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		DurationMs:      s.Duration().Milliseconds(),
		DataUnavailable: s.DataUnavailable,
		DataError:       s.DataError,
		Bunker:          bunkerView(s.Snapshot),
		Prices:          pricesView(s.Quote),
		Fuel:            purchaseView(s.Fuel),
		CO2:             purchaseView(s.CO2),
		DispatchEnabled: s.DispatchEnabled,
		FleetError:      s.FleetError,
		FleetSize:       s.FleetSize,
		EligibleCount:   s.EligibleCount,
		DepartedCount:   s.DepartedCount(),
		Departures:      departures,
		Interrupted:     s.Interrupted,
		Panic:           s.Panic,
		Headline:        s.Headline(),
	}
}

func statusView(r autopilot.StatusReport) StatusView {
	return StatusView{
		State:     r.State.String(),
		UpdatedAt: r.UpdatedAt,
		StartedAt: r.StartedAt,
		StoppedAt: r.StoppedAt,
		LastError: r.LastError,
		Session:   sessionView(r.Session),
		LastCycle: cycleView(r.LastCycle),
		Settings:  r.Settings,
	}
}

func eventView(e autopilot.Event) EventView {
	v := EventView{
		Type:    string(e.Type),
		At:      e.At,
		CycleID: e.CycleID,
		Level:   e.Level,
		Message: e.Message,
		Bunker:  bunkerView(e.Bunker),
		Prices:  pricesView(e.Prices),
		Cycle:   cycleView(e.Cycle),
	}
	if e.Purchase != nil {
		p := purchaseView(*e.Purchase)
		v.Purchase = &p
	}
	if e.Departure != nil {
		d := departureView(*e.Departure)
		v.Departure = &d
	}
	if e.Session != nil {
		s := sessionView(*e.Session)
		v.Session = &s
	}
	if e.Transition != nil {
		v.FromState = e.Transition.From.String()
		v.ToState = e.Transition.To.String()
	}
	return v
}

// encodeView turns a view into a protobuf Struct through its JSON form
func encodeView(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}
	return s, nil
}

// decodeView fills v from a protobuf Struct produced by encodeView
func decodeView(s *structpb.Struct, v interface{}) error {
	if s == nil {
		return fmt.Errorf("failed to decode view: empty response")
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("failed to decode view: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode view: %w", err)
	}
	return nil
}

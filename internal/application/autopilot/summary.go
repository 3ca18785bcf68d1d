package autopilot

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// Trigger says what started a cycle
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// PurchaseResult is the fuel or CO2 outcome of one cycle
type PurchaseResult struct {
	Plan      bunker.PurchasePlan
	Attempted bool
	Success   bool
	Error     string
}

// Status renders a one-word result: bought, failed or skipped
func (r PurchaseResult) Status() string {
	switch {
	case r.Success:
		return "bought"
	case r.Attempted:
		return "failed"
	default:
		return "skipped"
	}
}

func (r PurchaseResult) copy() *PurchaseResult {
	return &r
}

// CycleSummary is the structured report of one cycle
type CycleSummary struct {
	CycleID    string
	Trigger    Trigger
	StartedAt  time.Time
	FinishedAt time.Time

	// DataUnavailable is set when the snapshot or quote could not be read;
	// no purchase or departure is attempted in that case.
	DataUnavailable bool
	DataError       string

	Snapshot *bunker.BunkerSnapshot
	Quote    *bunker.PriceQuote

	Fuel PurchaseResult
	CO2  PurchaseResult

	DispatchEnabled bool
	FleetError      string
	FleetSize       int
	EligibleCount   int
	Departures      []fleet.DepartureOutcome

	// Interrupted is set when the run context ended mid-cycle
	Interrupted bool
	Panic       string
}

func (s *CycleSummary) recordPanic(msg string) {
	if s.Panic == "" {
		s.Panic = msg
		return
	}
	s.Panic += "; " + msg
}

// Duration returns how long the cycle ran
func (s *CycleSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// DepartedCount returns the number of successful departures
func (s *CycleSummary) DepartedCount() int {
	n := 0
	for _, d := range s.Departures {
		if d.Success {
			n++
		}
	}
	return n
}

// DepartureIncome sums the income of successful departures
func (s *CycleSummary) DepartureIncome() float64 {
	total := 0.0
	for _, d := range s.Departures {
		if d.Success {
			total += d.Income
		}
	}
	return total
}

// Headline renders the summary as a single status line
func (s *CycleSummary) Headline() string {
	if s.Panic != "" {
		return fmt.Sprintf("Cycle error: %s", s.Panic)
	}
	if s.DataUnavailable {
		return "Couldn't read game data, is the game loaded?"
	}

	parts := []string{
		"fuel " + s.Fuel.Status(),
		"CO2 " + s.CO2.Status(),
	}
	if s.DispatchEnabled {
		parts = append(parts, fmt.Sprintf("%d/%d departed (+%s)", s.DepartedCount(), s.EligibleCount, utils.FormatCash(s.DepartureIncome())))
	}
	line := fmt.Sprintf("Cycle done in %s: %s", s.Duration().Round(time.Millisecond), strings.Join(parts, ", "))
	if s.Interrupted {
		line += " (interrupted)"
	}
	return line
}

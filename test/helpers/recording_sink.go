package helpers

import (
	"strings"
	"sync"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
)

// RecordingSink collects every published event
type RecordingSink struct {
	mu     sync.Mutex
	events []autopilot.Event
}

// Compile-time interface check
var _ autopilot.StatusSink = (*RecordingSink)(nil)

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Publish(event autopilot.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded events
func (s *RecordingSink) Events() []autopilot.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]autopilot.Event, len(s.events))
	copy(out, s.events)
	return out
}

// OfType returns the recorded events of one type
func (s *RecordingSink) OfType(t autopilot.EventType) []autopilot.Event {
	var out []autopilot.Event
	for _, e := range s.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// StatusLines returns the messages of all STATUS events
func (s *RecordingSink) StatusLines() []string {
	var out []string
	for _, e := range s.OfType(autopilot.EventStatus) {
		out = append(out, e.Message)
	}
	return out
}

// HasStatusContaining reports whether any status line contains substr
func (s *RecordingSink) HasStatusContaining(substr string) bool {
	for _, line := range s.StatusLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// States returns the sequence of target states from STATE_CHANGED events
func (s *RecordingSink) States() []controller.State {
	var out []controller.State
	for _, e := range s.OfType(autopilot.EventStateChanged) {
		out = append(out, e.Transition.To)
	}
	return out
}

// WaitFor polls until cond holds or the timeout passes
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

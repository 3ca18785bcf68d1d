package controller

import (
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// State is a phase of the autopilot controller
type State string

const (
	// StateIdle indicates the controller was created but never started
	StateIdle State = "IDLE"

	// StateAwaitingBridgeReady indicates the controller waits for the game page to load
	StateAwaitingBridgeReady State = "AWAITING_BRIDGE_READY"

	// StateAwaitingLogin indicates the controller waits for an authenticated session
	StateAwaitingLogin State = "AWAITING_LOGIN"

	// StateActive indicates cycles are running on the configured interval
	StateActive State = "ACTIVE"

	// StateStopped indicates the run ended, by operator request or a fatal wait timeout
	StateStopped State = "STOPPED"
)

func (s State) String() string {
	return string(s)
}

// IsRunning returns true while a run goroutine owns the controller
func (s State) IsRunning() bool {
	return s == StateAwaitingBridgeReady || s == StateAwaitingLogin || s == StateActive
}

// Ordinal is a stable numeric code for the state, exported as a metric
func (s State) Ordinal() int {
	switch s {
	case StateIdle:
		return 0
	case StateAwaitingBridgeReady:
		return 1
	case StateAwaitingLogin:
		return 2
	case StateActive:
		return 3
	case StateStopped:
		return 4
	default:
		return -1
	}
}

var validTransitions = map[State][]State{
	StateIdle:                {StateAwaitingBridgeReady},
	StateAwaitingBridgeReady: {StateAwaitingLogin, StateStopped},
	StateAwaitingLogin:       {StateActive, StateStopped},
	StateActive:              {StateStopped},
	StateStopped:             {StateAwaitingBridgeReady},
}

// Transition records one state change
type Transition struct {
	From State
	To   State
	At   time.Time
}

// StateMachine tracks the controller phase and its timestamps.
//
// Invariants:
// - State transitions must follow the table above
// - Timestamps are automatically managed
// - Clock is injected for testability
type StateMachine struct {
	mu        sync.RWMutex
	state     State
	updatedAt time.Time
	startedAt *time.Time
	stoppedAt *time.Time
	lastError error
	clock     shared.Clock
}

// NewStateMachine creates a state machine in IDLE state
func NewStateMachine(clock shared.Clock) *StateMachine {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &StateMachine{
		state:     StateIdle,
		updatedAt: clock.Now(),
		clock:     clock,
	}
}

// State returns the current state
func (sm *StateMachine) State() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// UpdatedAt returns when the state last changed
func (sm *StateMachine) UpdatedAt() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.updatedAt
}

// StartedAt returns when the current or last run started (nil if never started)
func (sm *StateMachine) StartedAt() *time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.startedAt
}

// StoppedAt returns when the last run stopped (nil while running)
func (sm *StateMachine) StoppedAt() *time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stoppedAt
}

// LastError returns the error that stopped the last run (nil for an operator stop)
func (sm *StateMachine) LastError() error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastError
}

// Begin moves IDLE or STOPPED to AWAITING_BRIDGE_READY
func (sm *StateMachine) Begin() (Transition, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	t, err := sm.transitionLocked(StateAwaitingBridgeReady)
	if err != nil {
		return t, err
	}
	now := t.At
	sm.startedAt = &now
	sm.stoppedAt = nil
	sm.lastError = nil
	return t, nil
}

// BridgeReady moves AWAITING_BRIDGE_READY to AWAITING_LOGIN
func (sm *StateMachine) BridgeReady() (Transition, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.transitionLocked(StateAwaitingLogin)
}

// Authenticated moves AWAITING_LOGIN to ACTIVE
func (sm *StateMachine) Authenticated() (Transition, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.transitionLocked(StateActive)
}

// Stop moves any running state to STOPPED. cause is nil for an operator stop.
func (sm *StateMachine) Stop(cause error) (Transition, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	t, err := sm.transitionLocked(StateStopped)
	if err != nil {
		return t, err
	}
	now := t.At
	sm.stoppedAt = &now
	sm.lastError = cause
	return t, nil
}

// RuntimeDuration calculates how long the current or last run has been/was running
// Returns 0 if never started
func (sm *StateMachine) RuntimeDuration() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.startedAt == nil {
		return 0
	}

	endTime := sm.clock.Now()
	if sm.stoppedAt != nil {
		endTime = *sm.stoppedAt
	}

	return endTime.Sub(*sm.startedAt)
}

func (sm *StateMachine) transitionLocked(to State) (Transition, error) {
	from := sm.state
	if !canTransition(from, to) {
		return Transition{From: from, To: to}, fmt.Errorf("cannot move from %s to %s", from, to)
	}

	now := sm.clock.Now()
	sm.state = to
	sm.updatedAt = now
	return Transition{From: from, To: to, At: now}, nil
}

func canTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

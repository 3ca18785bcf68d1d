package grpc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// stubAutopilot records calls and answers with canned values
type stubAutopilot struct {
	mu         sync.Mutex
	state      controller.State
	startErr   error
	runNow     *autopilot.CycleSummary
	runNowErr  error
	refreshErr error
	resets     int
	startCtx   context.Context
}

func (s *stubAutopilot) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.startCtx = ctx
	s.state = controller.StateAwaitingBridgeReady
	return nil
}

func (s *stubAutopilot) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsRunning() {
		return autopilot.ErrNotRunning
	}
	s.state = controller.StateStopped
	return nil
}

func (s *stubAutopilot) Status() autopilot.StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := settings.Default()
	cfg.AutoDepart = true
	return autopilot.StatusReport{
		State:     s.state,
		UpdatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		LastCycle: s.runNow,
		Settings:  cfg,
	}
}

func (s *stubAutopilot) RunNow(ctx context.Context) (*autopilot.CycleSummary, error) {
	return s.runNow, s.runNowErr
}

func (s *stubAutopilot) ResetSession() ledger.SessionTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return ledger.SessionTotals{}
}

func (s *stubAutopilot) Refresh(ctx context.Context) (*bunker.BunkerSnapshot, *bunker.PriceQuote, error) {
	if s.refreshErr != nil {
		return nil, nil, s.refreshErr
	}
	at := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)
	snapshot := &bunker.BunkerSnapshot{FuelTons: 1200, CO2Tons: 40, Cash: 3_500_000, MaxFuelTons: 5000, MaxCO2Tons: 100, ReadAt: at}
	return snapshot, bunker.NewPriceQuote(bunker.Price(480), nil, "10:00", at), nil
}

func startTestDaemon(t *testing.T, ap Autopilot, events EventSource) *DaemonClient {
	t.Helper()

	// Unix socket paths are length limited, keep them short
	dir, err := os.MkdirTemp("", "shm")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "d.sock")

	lifetime, cancel := context.WithCancel(context.Background())
	server, err := NewDaemonServer(lifetime, ap, events, socket, ServerOptions{
		CircuitState: func() string { return "closed" },
	})
	require.NoError(t, err)

	go func() { _ = server.Serve() }()

	client, err := NewDaemonClient(socket)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		cancel()
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = server.Shutdown(ctx)
	})
	return client
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDaemon_StatusCarriesStateSettingsAndCircuit(t *testing.T) {
	// Arrange
	ap := &stubAutopilot{state: controller.StateIdle}
	client := startTestDaemon(t, ap, nil)

	// Act
	view, err := client.Status(callCtx(t))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "IDLE", view.State)
	assert.Equal(t, "closed", view.CircuitState)
	assert.True(t, view.Settings.AutoDepart)
	assert.Equal(t, bunker.ModeOff, view.Settings.FuelMode)
	assert.Equal(t, "0 departure(s) • +$0", view.Session.Summary)
	assert.Nil(t, view.LastCycle)
}

func TestDaemon_StartUsesDaemonLifetime(t *testing.T) {
	ap := &stubAutopilot{state: controller.StateIdle}
	client := startTestDaemon(t, ap, nil)

	ctx, cancel := context.WithCancel(context.Background())
	view, err := client.Start(ctx)
	cancel()

	require.NoError(t, err)
	assert.Equal(t, "AWAITING_BRIDGE_READY", view.State)

	ap.mu.Lock()
	defer ap.mu.Unlock()
	require.NotNil(t, ap.startCtx)
	assert.NoError(t, ap.startCtx.Err(), "the RPC context ending must not stop the controller")
}

func TestDaemon_StartAndStopErrorsMapToFailedPrecondition(t *testing.T) {
	ap := &stubAutopilot{state: controller.StateActive, startErr: autopilot.ErrAlreadyRunning}
	client := startTestDaemon(t, ap, nil)

	_, err := client.Start(callCtx(t))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.Stop(callCtx(t))
	require.NoError(t, err)
	_, err = client.Stop(callCtx(t))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, ErrorMessage(err), "not running")
}

func TestDaemon_RunNowReturnsCycle(t *testing.T) {
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ap := &stubAutopilot{
		state: controller.StateActive,
		runNow: &autopilot.CycleSummary{
			CycleID:         "c-1",
			Trigger:         autopilot.TriggerManual,
			StartedAt:       started,
			FinishedAt:      started.Add(1500 * time.Millisecond),
			Fuel:            autopilot.PurchaseResult{Plan: bunker.PurchasePlan{Commodity: bunker.CommodityFuel, AmountTons: 300, UnitPrice: 450}, Attempted: true, Success: true},
			CO2:             autopilot.PurchaseResult{Plan: bunker.PurchasePlan{Commodity: bunker.CommodityCO2, Reason: bunker.SkipReasonAboveThreshold}},
			DispatchEnabled: true,
			FleetSize:       3,
			EligibleCount:   2,
			Departures: []fleet.DepartureOutcome{
				{VesselID: 1, VesselName: "Aurora", Success: true, Income: 42_000},
				{VesselID: 2, VesselName: "Boreas", Error: "vessel_not_in_port"},
			},
		},
	}
	client := startTestDaemon(t, ap, nil)

	cycle, err := client.RunNow(callCtx(t))

	require.NoError(t, err)
	assert.Equal(t, "c-1", cycle.CycleID)
	assert.Equal(t, "manual", cycle.Trigger)
	assert.Equal(t, int64(1500), cycle.DurationMs)
	assert.Equal(t, "bought", cycle.Fuel.Status)
	assert.Equal(t, int64(300), cycle.Fuel.AmountTons)
	assert.Equal(t, "skipped", cycle.CO2.Status)
	assert.Equal(t, "above_threshold", cycle.CO2.Reason)
	assert.Equal(t, 1, cycle.DepartedCount)
	require.Len(t, cycle.Departures, 2)
	assert.Equal(t, "vessel_not_in_port", cycle.Departures[1].Error)
	assert.Contains(t, cycle.Headline, "1/2 departed")
}

func TestDaemon_RunNowQueuedIsResourceExhausted(t *testing.T) {
	ap := &stubAutopilot{state: controller.StateActive, runNowErr: autopilot.ErrCycleAlreadyQueued}
	client := startTestDaemon(t, ap, nil)

	_, err := client.RunNow(callCtx(t))

	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestDaemon_Refresh(t *testing.T) {
	ap := &stubAutopilot{}
	client := startTestDaemon(t, ap, nil)

	view, err := client.Refresh(callCtx(t))

	require.NoError(t, err)
	require.NotNil(t, view.Bunker)
	assert.Equal(t, int64(3_500_000), view.Bunker.Cash)
	require.NotNil(t, view.Prices)
	require.NotNil(t, view.Prices.FuelPrice)
	assert.Equal(t, 480.0, *view.Prices.FuelPrice)
	assert.Nil(t, view.Prices.CO2Price, "absent prices stay absent")
}

func TestDaemon_RefreshBridgeDown(t *testing.T) {
	ap := &stubAutopilot{refreshErr: shared.NewBridgeUnavailableError("read bunker", errors.New("page closed"))}
	client := startTestDaemon(t, ap, nil)

	_, err := client.Refresh(callCtx(t))

	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Contains(t, ErrorMessage(err), "read bunker")
}

func TestDaemon_ResetSession(t *testing.T) {
	ap := &stubAutopilot{state: controller.StateActive}
	client := startTestDaemon(t, ap, nil)

	_, err := client.ResetSession(callCtx(t))

	require.NoError(t, err)
	ap.mu.Lock()
	defer ap.mu.Unlock()
	assert.Equal(t, 1, ap.resets)
}

func TestDaemon_SubscribeStreamsEvents(t *testing.T) {
	bus := autopilot.NewEventBus()
	client := startTestDaemon(t, &stubAutopilot{}, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := client.Subscribe(ctx)
	require.NoError(t, err)

	// The server subscribes asynchronously; wait until the stream is attached
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, 3*time.Second, 10*time.Millisecond)
	totals := ledger.SessionTotals{DepartureCount: 2, TotalIncome: 100_000}
	bus.Publish(autopilot.Event{
		Type:    autopilot.EventStatus,
		Level:   "INFO",
		Message: "Session counters reset",
		Session: &totals,
		At:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	bus.Publish(autopilot.Event{
		Type:       autopilot.EventStateChanged,
		Transition: &controller.Transition{From: controller.StateIdle, To: controller.StateAwaitingBridgeReady},
	})

	first := <-events
	assert.Equal(t, "STATUS", first.Type)
	assert.Equal(t, "Session counters reset", first.Message)
	require.NotNil(t, first.Session)
	assert.Equal(t, 2, first.Session.DepartureCount)

	second := <-events
	assert.Equal(t, "STATE_CHANGED", second.Type)
	assert.Equal(t, "IDLE", second.FromState)
	assert.Equal(t, "AWAITING_BRIDGE_READY", second.ToState)
}

func TestDaemon_SubscribeWithoutEventSource(t *testing.T) {
	client := startTestDaemon(t, &stubAutopilot{}, nil)

	events, errs, err := client.Subscribe(callCtx(t))
	require.NoError(t, err)

	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, codes.Unimplemented, status.Code(<-errs))
}

func TestToStatusError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"already running", autopilot.ErrAlreadyRunning, codes.FailedPrecondition},
		{"not running", autopilot.ErrNotRunning, codes.FailedPrecondition},
		{"queued", autopilot.ErrCycleAlreadyQueued, codes.ResourceExhausted},
		{"bridge", shared.NewBridgeUnavailableError("depart", nil), codes.Unavailable},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatusError(tt.err)))
		})
	}
	assert.NoError(t, toStatusError(nil))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
	assert.Equal(t, "cycle already queued", ErrorMessage(status.Error(codes.ResourceExhausted, "cycle already queued")))
	assert.Contains(t, ErrorMessage(status.Error(codes.Unavailable, "connection error: desc = dial unix /tmp/x.sock: connect: no such file")), "is shipman-daemon running")
}

func TestDaemon_ShutdownRemovesSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "shm")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "d.sock")

	server, err := NewDaemonServer(context.Background(), &stubAutopilot{}, nil, socket, ServerOptions{})
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- server.Serve() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, server.Shutdown(ctx))
	assert.NoFileExists(t, socket)
	assert.NoError(t, <-served)
}

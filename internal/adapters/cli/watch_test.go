package cli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcAdapter "github.com/andrescamacho/shippingmanager-go/internal/adapters/grpc"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
)

type fakeDashboardClient struct {
	mu      sync.Mutex
	status  grpcAdapter.StatusView
	calls   []string
	failRun error
}

func (f *fakeDashboardClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeDashboardClient) Status(ctx context.Context) (*grpcAdapter.StatusView, error) {
	f.record("status")
	view := f.status
	return &view, nil
}

func (f *fakeDashboardClient) Start(ctx context.Context) (*grpcAdapter.StatusView, error) {
	f.record("start")
	return &f.status, nil
}

func (f *fakeDashboardClient) Stop(ctx context.Context) (*grpcAdapter.StatusView, error) {
	f.record("stop")
	return &f.status, nil
}

func (f *fakeDashboardClient) ResetSession(ctx context.Context) (*grpcAdapter.StatusView, error) {
	f.record("reset")
	return &f.status, nil
}

func (f *fakeDashboardClient) RunNow(ctx context.Context) (*grpcAdapter.CycleView, error) {
	f.record("run-now")
	if f.failRun != nil {
		return nil, f.failRun
	}
	return &grpcAdapter.CycleView{Headline: "Cycle done in 1s: fuel bought, CO2 skipped"}, nil
}

func newTestDashboard(t *testing.T) (*dashboard, *fakeDashboardClient) {
	t.Helper()
	noColor = true
	t.Cleanup(func() { noColor = false })

	cfg := settings.Default()
	cfg.FuelThresholdPrice = 500
	client := &fakeDashboardClient{status: grpcAdapter.StatusView{
		State:    "ACTIVE",
		Settings: cfg,
		Session:  grpcAdapter.SessionView{Summary: "3 departure(s) • +$150K"},
	}}
	return newDashboard(client, make(chan grpcAdapter.EventView), nil), client
}

func TestDashboard_StatusAndEventsRender(t *testing.T) {
	// Arrange
	m, client := newTestDashboard(t)
	view, _ := client.Status(context.Background())

	// Act
	m.Update(statusMsg{view: view})
	m.Update(eventMsg{
		Type:   "BUNKER_UPDATED",
		Bunker: &grpcAdapter.BunkerView{FuelTons: 1200, MaxFuelTons: 5000, CO2Tons: 40, MaxCO2Tons: 100, Cash: 3_500_000},
	})
	m.Update(eventMsg{
		Type:   "PRICES_UPDATED",
		Prices: &grpcAdapter.PricesView{FuelPrice: bunker.Price(480), Slot: "10:00"},
	})
	m.Update(eventMsg{Type: "STATUS", Level: "INFO", Message: "Bought 300t fuel @ $480/t", At: time.Now()})

	// Assert
	out := m.View()
	assert.Contains(t, out, "ACTIVE")
	assert.Contains(t, out, "1,200t / 5,000t")
	assert.Contains(t, out, "$3.5M")
	assert.Contains(t, out, "$480/t")
	assert.Contains(t, out, "slot 10:00")
	assert.Contains(t, out, "3 departure(s) • +$150K")
	assert.Contains(t, out, "Bought 300t fuel @ $480/t")
}

func TestDashboard_StateChangeEvent(t *testing.T) {
	m, client := newTestDashboard(t)
	view, _ := client.Status(context.Background())
	m.Update(statusMsg{view: view})

	m.Update(eventMsg{Type: "STATE_CHANGED", FromState: "ACTIVE", ToState: "STOPPED"})

	assert.Equal(t, "STOPPED", m.status.State)
}

func TestDashboard_LogKeepsRecentLines(t *testing.T) {
	m, _ := newTestDashboard(t)

	for i := 0; i < watchLogLines+5; i++ {
		m.Update(eventMsg{Type: "STATUS", Level: "INFO", Message: "line"})
	}

	assert.Len(t, m.log, watchLogLines)
}

func TestDashboard_RunNowKey(t *testing.T) {
	m, client := newTestDashboard(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// A second key while busy is ignored
	_, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, again)

	msg := cmd()
	m.Update(msg)

	assert.False(t, m.busy)
	assert.Equal(t, []string{"run-now"}, client.calls)
	require.NotEmpty(t, m.log)
	assert.Contains(t, m.log[len(m.log)-1].text, "Cycle done")
}

func TestDashboard_ActionErrorShown(t *testing.T) {
	m, client := newTestDashboard(t)
	client.failRun = errors.New("a cycle is already queued")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m.Update(cmd())

	assert.Contains(t, m.View(), "run-now: a cycle is already queued")
}

func TestDashboard_StartStopToggle(t *testing.T) {
	m, client := newTestDashboard(t)
	view, _ := client.Status(context.Background())
	m.Update(statusMsg{view: view})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m.Update(cmd())

	view.State = "STOPPED"
	m.Update(statusMsg{view: view})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m.Update(cmd())

	assert.Equal(t, []string{"status", "stop", "start"}, client.calls)
}

func TestDashboard_StreamEnded(t *testing.T) {
	events := make(chan grpcAdapter.EventView)
	errs := make(chan error, 1)
	m := newDashboard(&fakeDashboardClient{}, events, errs)
	noColor = true
	t.Cleanup(func() { noColor = false })

	errs <- errors.New("daemon shutting down")
	close(errs)
	close(events)

	msg := m.waitForEvent()()
	m.Update(msg)

	assert.True(t, m.streamDown)
	assert.Contains(t, m.View(), "event stream closed")
}

func TestDashboard_QuitKey(t *testing.T) {
	m, _ := newTestDashboard(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

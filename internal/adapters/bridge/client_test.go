package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

type evalCall struct {
	script string
	arg    interface{}
}

// fakeRunner answers scripts from a table keyed by script text
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]interface{}
	errs    map[string]error
	calls   []evalCall
	filled  map[string]string
	clicked []string
	fillErr error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]interface{}),
		errs:    make(map[string]error),
		filled:  make(map[string]string),
	}
}

func (f *fakeRunner) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, evalCall{script: script, arg: arg})
	if err := f.errs[script]; err != nil {
		return nil, err
	}
	return f.results[script], nil
}

func (f *fakeRunner) Fill(ctx context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fillErr != nil {
		return f.fillErr
	}
	f.filled[selector] = value
	return nil
}

func (f *fakeRunner) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeRunner) lastArg() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	arg, _ := f.calls[len(f.calls)-1].arg.(map[string]interface{})
	return arg
}

func TestPlaywrightBridge_ReadyAndAuthenticated(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)

	assert.False(t, b.IsBridgeReady(context.Background()))

	runner.results[readyScript] = true
	runner.results[authenticatedScript] = nil
	assert.True(t, b.IsBridgeReady(context.Background()))
	assert.False(t, b.IsSessionAuthenticated(context.Background()))

	runner.errs[readyScript] = errors.New("Execution context was destroyed")
	assert.False(t, b.IsBridgeReady(context.Background()))
}

func TestPlaywrightBridge_ReadBunkerSnapshot(t *testing.T) {
	runner := newFakeRunner()
	clock := shared.NewMockClock(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	b := NewPlaywrightBridge(runner, clock)
	runner.results[bunkerScript] = map[string]interface{}{
		"fuel": 100_000.0, "co2": 5_000.0, "cash": 2_000_000.0, "max_fuel": 1_000_000.0, "max_co2": 50_000.0,
	}

	snapshot, err := b.ReadBunkerSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 100.0, snapshot.FuelTons)
	assert.Equal(t, 50.0, snapshot.MaxCO2Tons)
	assert.Equal(t, clock.Now(), snapshot.ReadAt)
}

func TestPlaywrightBridge_ScriptErrorIsBridgeUnavailable(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)
	runner.errs[pricesScript] = errors.New("page crashed")

	_, err := b.ReadPriceQuote(context.Background())

	assert.True(t, shared.IsBridgeUnavailable(err))
	assert.Contains(t, err.Error(), "read prices")
}

func TestPlaywrightBridge_ReadFleetErrorReturnsEmptyList(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)
	runner.errs[fleetScript] = errors.New("HTTP 502")

	vessels, err := b.ReadFleet(context.Background())

	assert.Error(t, err)
	assert.NotNil(t, vessels)
	assert.Empty(t, vessels)
}

func TestPlaywrightBridge_PurchaseSendsKilograms(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)
	runner.results[purchaseScript] = map[string]interface{}{"ok": true, "error": nil}

	require.NoError(t, b.Purchase(context.Background(), bunker.CommodityCO2, 45))

	arg := runner.lastArg()
	assert.Equal(t, purchaseCO2Path, arg["path"])
	assert.Equal(t, int64(45_000), arg["amount"])
}

func TestPlaywrightBridge_PurchaseRejected(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)
	runner.results[purchaseScript] = map[string]interface{}{"ok": false, "error": "not_enough_cash"}

	err := b.Purchase(context.Background(), bunker.CommodityFuel, 900)

	assert.True(t, shared.IsRemoteRejection(err))
	assert.Equal(t, purchaseFuelPath, runner.lastArg()["path"])
}

func TestPlaywrightBridge_PurchaseValidatesInput(t *testing.T) {
	b := NewPlaywrightBridge(newFakeRunner(), nil)

	err := b.Purchase(context.Background(), bunker.CommodityFuel, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be at least 1")
	assert.Error(t, b.Purchase(context.Background(), bunker.Commodity("lng"), 10))
}

func TestPlaywrightBridge_DepartVessel(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)
	runner.results[departScript] = map[string]interface{}{
		"data": map[string]interface{}{
			"depart_info": map[string]interface{}{"depart_income": 50_000.0, "fuel_usage": 4_000.0, "co2_emission": 1_000.0, "harbor_fee": 250.0},
		},
	}

	outcome := b.DepartVessel(context.Background(), 42, 0, 1)

	assert.True(t, outcome.Success)
	assert.Equal(t, 4.0, outcome.FuelUsedTons)
	arg := runner.lastArg()
	assert.Equal(t, int64(42), arg["user_vessel_id"])
	assert.Equal(t, 20.0, arg["speed"], "zero speed falls back to the default route speed")
	assert.Equal(t, 1, arg["guards"])
}

func TestPlaywrightBridge_DepartScriptError(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)
	runner.errs[departScript] = errors.New("timeout")

	outcome := b.DepartVessel(context.Background(), 42, 20, 0)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "timeout")
}

func TestPlaywrightBridge_AttemptLogin(t *testing.T) {
	runner := newFakeRunner()
	b := NewPlaywrightBridge(runner, nil)

	assert.False(t, b.AttemptLogin(context.Background(), "", "secret"))
	assert.Empty(t, runner.filled)

	assert.True(t, b.AttemptLogin(context.Background(), "captain@example.com", "secret"))
	assert.Equal(t, "captain@example.com", runner.filled[loginEmailSelector])
	assert.Equal(t, "secret", runner.filled[loginPasswordSelector])
	assert.Equal(t, []string{loginSubmitSelector}, runner.clicked)

	runner.fillErr = errors.New("no such element")
	assert.False(t, b.AttemptLogin(context.Background(), "captain@example.com", "secret"))
}

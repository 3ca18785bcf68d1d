package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	appLedger "github.com/andrescamacho/shippingmanager-go/internal/application/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/application/ledger/commands"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/test/helpers"
)

type pingQuery struct{}

type failingQuery struct{}

func TestPrometheusMiddleware_RecordsOutcome(t *testing.T) {
	// Arrange
	collector := NewRequestMetricsCollector()
	m := common.NewMediator()
	m.Use(PrometheusMiddleware(collector))
	ok := common.HandlerFunc(func(ctx context.Context, r common.Request) (common.Response, error) { return "pong", nil })
	fail := common.HandlerFunc(func(ctx context.Context, r common.Request) (common.Response, error) { return nil, errors.New("boom") })
	require.NoError(t, common.RegisterHandler[*pingQuery](m, handlerFunc(ok)))
	require.NoError(t, common.RegisterHandler[*failingQuery](m, handlerFunc(fail)))

	// Act
	resp, err := m.Send(context.Background(), &pingQuery{})
	_, failErr := m.Send(context.Background(), &failingQuery{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pong", resp)
	assert.Error(t, failErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("pingQuery", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("failingQuery", "error")))
}

func TestPrometheusMiddleware_NilCollectorPassesThrough(t *testing.T) {
	mw := PrometheusMiddleware(nil)

	resp, err := mw(context.Background(), &pingQuery{}, func(ctx context.Context, r common.Request) (common.Response, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, resp)
}

func TestRequestName(t *testing.T) {
	assert.Equal(t, "RecordPurchaseCommand", requestName(&commands.RecordPurchaseCommand{}))
	assert.Equal(t, "pingQuery", requestName(pingQuery{}))
	assert.Equal(t, "Unknown", requestName(nil))
}

func TestLedgerMetricsCollector_Update(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	repo := helpers.NewTestLedger(t)
	require.NoError(t, appLedger.RegisterHandlers(m, repo, shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))))
	ctx := context.Background()
	_, err := m.Send(ctx, &commands.RecordPurchaseCommand{Plan: bunker.PurchasePlan{Commodity: bunker.CommodityFuel, AmountTons: 100, UnitPrice: 400}})
	require.NoError(t, err)
	_, err = m.Send(ctx, &commands.RecordDepartureCommand{Outcome: fleet.DepartureOutcome{VesselID: 3, VesselName: "Aurora", Success: true, Income: 90_000}})
	require.NoError(t, err)
	collector := NewLedgerMetricsCollector(m, 0)

	// Act
	collector.Update(ctx)

	// Assert
	assert.Equal(t, 90_000.0, testutil.ToFloat64(collector.totalIncome))
	assert.Equal(t, 40_000.0, testutil.ToFloat64(collector.totalSpend))
	assert.Equal(t, 50_000.0, testutil.ToFloat64(collector.net))
	assert.Equal(t, -40_000.0, testutil.ToFloat64(collector.amountByType.WithLabelValues("FUEL_PURCHASE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.countByType.WithLabelValues("VESSEL_DEPARTURE")))
	assert.Equal(t, DefaultLedgerPollInterval, collector.interval)
}

func TestServer_ServesRegistry(t *testing.T) {
	// Arrange
	InitRegistry()
	t.Cleanup(func() { Registry = nil })
	collector := NewBridgeMetricsCollector()
	require.NoError(t, collector.Register())
	collector.ObserveCircuitState(1)

	server, err := NewServer("127.0.0.1:0", "/metrics")
	require.NoError(t, err)
	go func() { _ = server.Serve() }()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	// Act
	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "shipman_bridge_circuit_state 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewServer_RequiresRegistry(t *testing.T) {
	Registry = nil

	_, err := NewServer("127.0.0.1:0", "")

	assert.Error(t, err)
}

// handlerFunc adapts a common.HandlerFunc to common.RequestHandler
type handlerFunc common.HandlerFunc

func (f handlerFunc) Handle(ctx context.Context, r common.Request) (common.Response, error) {
	return f(ctx, r)
}

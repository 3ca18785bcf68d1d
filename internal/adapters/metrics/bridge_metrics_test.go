package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/bridge"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/test/helpers"
)

func TestCallResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"circuit open", shared.NewBridgeUnavailableError("read", bridge.ErrCircuitOpen), "circuit_open"},
		{"unavailable", shared.NewBridgeUnavailableError("read", errors.New("target closed")), "unavailable"},
		{"rejected", shared.NewRemoteRejectionError("purchase", "not_enough_cash"), "rejected"},
		{"incomplete", shared.NewDataIncompleteError("bunker", "store missing"), "incomplete"},
		{"other", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, callResult(tt.err))
		})
	}
}

func TestBridgeMetricsCollector_ObservesGate(t *testing.T) {
	// Arrange
	collector := NewBridgeMetricsCollector()
	mock := helpers.NewMockBridge()
	mock.SetPrices(bunker.Price(400), bunker.Price(8))
	mock.SnapshotErr = shared.NewBridgeUnavailableError("read bunker", errors.New("page crashed"))
	gate := bridge.NewGate(mock, bridge.GateOptions{
		BreakerFailures: 1,
		BreakerCooldown: time.Hour,
		Observer:        collector,
	}, nil)

	// Act
	_, _ = gate.ReadPriceQuote(context.Background())
	_, _ = gate.ReadBunkerSnapshot(context.Background())
	_, _ = gate.ReadBunkerSnapshot(context.Background())

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.callsTotal.WithLabelValues("read prices", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.callsTotal.WithLabelValues("read bunker", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.callsTotal.WithLabelValues("read bunker", "circuit_open")))
	assert.Equal(t, float64(bridge.CircuitOpen), testutil.ToFloat64(collector.circuitState))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.callDuration))
}

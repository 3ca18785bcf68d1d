package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/bridge"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// Compile-time interface check
var _ bridge.CallObserver = (*BridgeMetricsCollector)(nil)

// BridgeMetricsCollector records script executions passing through the bridge gate
type BridgeMetricsCollector struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	rateLimitWait *prometheus.HistogramVec
	circuitState  prometheus.Gauge
}

// NewBridgeMetricsCollector creates a new bridge metrics collector
func NewBridgeMetricsCollector() *BridgeMetricsCollector {
	return &BridgeMetricsCollector{
		// Script executions by operation and outcome class
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "calls_total",
				Help:      "Total number of bridge calls by operation and result",
			},
			[]string{"operation", "result"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "call_duration_seconds",
				Help:      "Bridge call duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"operation"},
		),

		rateLimitWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "rate_limit_wait_seconds",
				Help:      "Time spent waiting for the script rate limiter",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"operation"},
		),

		circuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		}),
	}
}

// Register registers all bridge metrics with the Prometheus registry
func (c *BridgeMetricsCollector) Register() error {
	return register(c.callsTotal, c.callDuration, c.rateLimitWait, c.circuitState)
}

func (c *BridgeMetricsCollector) ObserveRateLimitWait(op string, wait time.Duration) {
	c.rateLimitWait.WithLabelValues(op).Observe(wait.Seconds())
}

func (c *BridgeMetricsCollector) ObserveCall(op string, duration time.Duration, err error) {
	c.callsTotal.WithLabelValues(op, callResult(err)).Inc()
	c.callDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (c *BridgeMetricsCollector) ObserveCircuitState(state bridge.CircuitState) {
	c.circuitState.Set(float64(state))
}

// callResult maps an error onto the failure taxonomy
func callResult(err error) string {
	var incomplete *shared.DataIncompleteError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, bridge.ErrCircuitOpen):
		return "circuit_open"
	case shared.IsBridgeUnavailable(err):
		return "unavailable"
	case shared.IsRemoteRejection(err):
		return "rejected"
	case errors.As(err, &incomplete):
		return "incomplete"
	default:
		return "error"
	}
}

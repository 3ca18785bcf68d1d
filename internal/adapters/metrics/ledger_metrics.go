package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	ledgerQueries "github.com/andrescamacho/shippingmanager-go/internal/application/ledger/queries"
)

// DefaultLedgerPollInterval is how often the persisted ledger is re-aggregated
const DefaultLedgerPollInterval = 60 * time.Second

// LedgerMetricsCollector exports all-time ledger totals. Unlike the session
// gauges these survive daemon restarts because they come from the database.
type LedgerMetricsCollector struct {
	mediator common.Mediator
	interval time.Duration

	amountByType *prometheus.GaugeVec
	countByType  *prometheus.GaugeVec
	totalIncome  prometheus.Gauge
	totalSpend   prometheus.Gauge
	net          prometheus.Gauge

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewLedgerMetricsCollector creates a collector polling through mediator
func NewLedgerMetricsCollector(mediator common.Mediator, interval time.Duration) *LedgerMetricsCollector {
	if interval <= 0 {
		interval = DefaultLedgerPollInterval
	}

	return &LedgerMetricsCollector{
		mediator: mediator,
		interval: interval,

		amountByType: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "amount",
				Help:      "Signed sum of recorded transactions by type",
			},
			[]string{"type"},
		),
		countByType: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "transactions",
				Help:      "Number of recorded transactions by type",
			},
			[]string{"type"},
		),
		totalIncome: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "total_income",
			Help:      "All-time departure income",
		}),
		totalSpend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "total_spend",
			Help:      "All-time bunker spend",
		}),
		net: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "net",
			Help:      "All-time income minus spend",
		}),
	}
}

// Register registers all ledger metrics with the Prometheus registry
func (c *LedgerMetricsCollector) Register() error {
	return register(c.amountByType, c.countByType, c.totalIncome, c.totalSpend, c.net)
}

// Start begins the polling goroutine
func (c *LedgerMetricsCollector) Start(ctx context.Context) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.poll()
}

// Stop gracefully stops the ledger metrics collector
func (c *LedgerMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *LedgerMetricsCollector) poll() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Do initial poll immediately
	c.Update(c.ctx)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Update(c.ctx)
		}
	}
}

// Update runs one summary query and refreshes the gauges
func (c *LedgerMetricsCollector) Update(ctx context.Context) {
	if c.mediator == nil {
		return
	}

	response, err := c.mediator.Send(ctx, &ledgerQueries.GetLedgerSummaryQuery{})
	if err != nil {
		log.Printf("Failed to fetch ledger summary: %v", err)
		return
	}

	summary, ok := response.(*ledgerQueries.GetLedgerSummaryResponse)
	if !ok {
		log.Printf("Unexpected response type for ledger summary query: %T", response)
		return
	}

	for _, row := range summary.Rows {
		c.amountByType.WithLabelValues(row.Type).Set(row.TotalAmount)
		c.countByType.WithLabelValues(row.Type).Set(float64(row.Count))
	}
	c.totalIncome.Set(summary.TotalIncome)
	c.totalSpend.Set(summary.TotalSpend)
	c.net.Set(summary.Net)
}

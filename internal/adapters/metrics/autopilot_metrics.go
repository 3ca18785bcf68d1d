package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
)

// EventSource is anything that hands out controller event subscriptions
type EventSource interface {
	Subscribe(buffer int) (<-chan autopilot.Event, func())
}

// AutopilotCollector turns controller events into bunker, price, purchase
// and departure metrics
type AutopilotCollector struct {
	source EventSource

	// Bunker and price gauges
	fuelTons   prometheus.Gauge
	co2Tons    prometheus.Gauge
	cash       prometheus.Gauge
	fuelPrice  prometheus.Gauge
	co2Price   prometheus.Gauge
	bunkerFill *prometheus.GaugeVec

	// Session gauges
	sessionDepartures prometheus.Gauge
	sessionIncome     prometheus.Gauge
	controllerState   prometheus.Gauge

	purchasesTotal       *prometheus.CounterVec
	tonsPurchasedTotal   *prometheus.CounterVec
	departuresTotal      *prometheus.CounterVec
	departureIncomeTotal prometheus.Counter
	cycleDuration        prometheus.Histogram

	// Lifecycle management
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewAutopilotCollector creates a collector fed by source
func NewAutopilotCollector(source EventSource) *AutopilotCollector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &AutopilotCollector{
		source: source,

		fuelTons:  gauge("fuel_tons", "Fuel held in the bunker, in tons"),
		co2Tons:   gauge("co2_tons", "CO2 certificates held in the bunker, in tons"),
		cash:      gauge("cash", "Company cash at the last bunker read"),
		fuelPrice: gauge("fuel_price", "Current fuel price per ton"),
		co2Price:  gauge("co2_price", "Current CO2 price per ton"),
		bunkerFill: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "bunker_fill_ratio",
				Help:      "Bunker holding as a fraction of capacity",
			},
			[]string{"commodity"},
		),

		sessionDepartures: gauge("session_departures", "Departures recorded since the session was last reset"),
		sessionIncome:     gauge("session_income", "Departure income since the session was last reset"),
		controllerState:   gauge("controller_state", "Controller state (0 idle, 1 awaiting bridge, 2 awaiting login, 3 active, 4 stopped)"),

		purchasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "purchases_total",
				Help:      "Attempted bunker purchases by commodity and result",
			},
			[]string{"commodity", "result"},
		),
		tonsPurchasedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tons_purchased_total",
				Help:      "Tons bought by commodity",
			},
			[]string{"commodity"},
		),
		departuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "departures_total",
				Help:      "Departure attempts by result",
			},
			[]string{"result"},
		),
		departureIncomeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "departure_income_total",
			Help:      "Income earned from successful departures",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one replenishment and dispatch cycle",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// Register registers all autopilot metrics with the Prometheus registry
func (c *AutopilotCollector) Register() error {
	return register(
		c.fuelTons,
		c.co2Tons,
		c.cash,
		c.fuelPrice,
		c.co2Price,
		c.bunkerFill,
		c.sessionDepartures,
		c.sessionIncome,
		c.controllerState,
		c.purchasesTotal,
		c.tonsPurchasedTotal,
		c.departuresTotal,
		c.departureIncomeTotal,
		c.cycleDuration,
	)
}

// Start subscribes to the event source and consumes events until Stop
func (c *AutopilotCollector) Start(ctx context.Context) {
	ctx, c.cancelFunc = context.WithCancel(ctx)
	events, unsubscribe := c.source.Subscribe(0)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				c.Observe(event)
			}
		}
	}()
}

// Stop gracefully stops the collector
func (c *AutopilotCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

// Observe applies one event to the metrics
func (c *AutopilotCollector) Observe(event autopilot.Event) {
	// Departures and session resets both carry the running totals
	if s := event.Session; s != nil {
		c.sessionDepartures.Set(float64(s.DepartureCount))
		c.sessionIncome.Set(s.TotalIncome)
	}

	switch event.Type {
	case autopilot.EventBunkerUpdated:
		if s := event.Bunker; s != nil {
			c.fuelTons.Set(s.FuelTons)
			c.co2Tons.Set(s.CO2Tons)
			c.cash.Set(float64(s.Cash))
			for _, commodity := range bunker.AllCommodities() {
				c.bunkerFill.WithLabelValues(commodity.String()).Set(s.FillRatio(commodity))
			}
		}

	case autopilot.EventPricesUpdated:
		if q := event.Prices; q != nil {
			if p, ok := q.PriceFor(bunker.CommodityFuel); ok {
				c.fuelPrice.Set(p)
			}
			if p, ok := q.PriceFor(bunker.CommodityCO2); ok {
				c.co2Price.Set(p)
			}
		}

	case autopilot.EventPurchaseCompleted:
		if r := event.Purchase; r != nil && r.Attempted {
			commodity := r.Plan.Commodity.String()
			c.purchasesTotal.WithLabelValues(commodity, r.Status()).Inc()
			if r.Success {
				c.tonsPurchasedTotal.WithLabelValues(commodity).Add(float64(r.Plan.AmountTons))
			}
		}

	case autopilot.EventDepartureRecorded:
		if d := event.Departure; d != nil && d.Success {
			c.departuresTotal.WithLabelValues("success").Inc()
			c.departureIncomeTotal.Add(d.Income)
		}

	case autopilot.EventCycleCompleted:
		if s := event.Cycle; s != nil {
			c.cycleDuration.Observe(s.Duration().Seconds())
			// Successful departures arrive one by one as DEPARTURE_RECORDED
			for _, d := range s.Departures {
				if !d.Success {
					c.departuresTotal.WithLabelValues("failed").Inc()
				}
			}
		}

	case autopilot.EventStateChanged:
		if t := event.Transition; t != nil {
			c.controllerState.Set(float64(t.To.Ordinal()))
		}
	}
}

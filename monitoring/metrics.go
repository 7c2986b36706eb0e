package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sarchlab/eventsim/hooking"
	"github.com/sarchlab/eventsim/timing"
)

// Metrics is a hook that exports engine activity as Prometheus metrics.
type Metrics struct {
	engine timing.Engine

	EventsDispatched prometheus.Counter
	HandlerFailures  prometheus.Counter
	SimulationTime   prometheus.Gauge
	PendingEvents    prometheus.Gauge
	EventLeadTime    prometheus.Histogram
}

// NewMetrics registers the engine metrics with reg.
func NewMetrics(reg prometheus.Registerer, engine timing.Engine) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		engine: engine,
		EventsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "eventsim_events_dispatched_total",
			Help: "Total number of events handed to their handler.",
		}),
		HandlerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "eventsim_handler_failures_total",
			Help: "Total number of handlers that returned an error.",
		}),
		SimulationTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "eventsim_simulation_time",
			Help: "Current simulation time.",
		}),
		PendingEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "eventsim_pending_events",
			Help: "Number of events waiting in the queue.",
		}),
		EventLeadTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventsim_event_lead_time",
			Help:    "Simulation time between scheduling and dispatching an event.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
}

// Func updates the metrics after each event.
func (m *Metrics) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosAfterEvent {
		return
	}

	evt, ok := ctx.Item.(*timing.ScheduledEvent)
	if !ok {
		return
	}

	m.EventsDispatched.Inc()
	if err, _ := ctx.Detail.(error); err != nil {
		m.HandlerFailures.Inc()
	}

	m.SimulationTime.Set(evt.Time)
	m.PendingEvents.Set(float64(m.engine.Pending()))
	m.EventLeadTime.Observe(evt.Time - evt.ScheduledAt)
}

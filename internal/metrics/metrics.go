package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ticks         prometheus.Counter
	stepSeconds   prometheus.Histogram
	subscribers   prometheus.Gauge
	eventsDropped prometheus.Counter
	gatherer      prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "netwatch_layout_ticks_total",
			Help: "Layout simulation ticks executed.",
		}),
		stepSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "netwatch_layout_step_seconds",
			Help:    "Wall time spent in a single layout tick.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "netwatch_stream_subscribers",
			Help: "Connected topology stream clients.",
		}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "netwatch_events_dropped_total",
			Help: "Simulator events dropped because the channel was full.",
		}),
		gatherer: reg,
	}
}

// ObserveStep records one tick and its duration.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.stepSeconds.Observe(d.Seconds())
}

// EventDropped counts an undelivered simulator event.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// SubscriberJoined and SubscriberLeft track stream clients.
func (m *Metrics) SubscriberJoined() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberLeft() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

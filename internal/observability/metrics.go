package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and realtime fan-out.
type Metrics struct {
	CyclesTotal       *prometheus.CounterVec // labels: outcome={success,feed_error,storage_error}
	EventsProcessed   prometheus.Counter
	EventsInserted    prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	FeedErrors        *prometheus.CounterVec // labels: kind={unavailable,malformed}
	DispatchDecisions prometheus.Counter

	CycleDuration    prometheus.Histogram
	ConnectedClients prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.EventsProcessed,
		m.EventsInserted,
		m.DuplicatesSkipped,
		m.FeedErrors,
		m.DispatchDecisions,
		m.CycleDuration,
		m.ConnectedClients,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakewatch",
			Name:      "ingest_cycles_total",
			Help:      "Ingestion cycles by outcome.",
		}, []string{"outcome"}),
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakewatch",
			Name:      "events_processed_total",
			Help:      "Total feed records seen across all cycles.",
		}),
		EventsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakewatch",
			Name:      "events_inserted_total",
			Help:      "Total new alert rows inserted.",
		}),
		DuplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakewatch",
			Name:      "duplicates_skipped_total",
			Help:      "Feed records skipped because the event was already stored.",
		}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakewatch",
			Name:      "feed_errors_total",
			Help:      "Upstream feed failures by kind.",
		}, []string{"kind"}),
		DispatchDecisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakewatch",
			Name:      "dispatch_decisions_total",
			Help:      "Per-user notification decisions published.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakewatch",
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-dedup-insert-notify cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakewatch",
			Name:      "connected_clients",
			Help:      "Number of currently connected websocket clients.",
		}),
	}
}

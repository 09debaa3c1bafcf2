package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_impact"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard service.
type Metrics struct {
	DataReady prometheus.Gauge

	// Render metrics.
	Renders        *prometheus.CounterVec // labels: mode={none,overview,comparative}
	RenderErrors   prometheus.Counter
	RenderDuration prometheus.Histogram

	// Load metrics.
	LayerCache        *prometheus.CounterVec   // labels: result={hit,miss}
	LayerLoadDuration *prometheus.HistogramVec // labels: kind={polygon,line,point,businesses}
	LoadErrors        *prometheus.CounterVec   // labels: kind
	BusinessesLoaded  prometheus.Gauge
	BusinessesDropped prometheus.Counter

	// Snapshot publishing metrics.
	SnapshotsPublished *prometheus.CounterVec // labels: outcome={success,error}
	SnapshotsEnabled   prometheus.Gauge

	RateLimited prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.DataReady,
		m.Renders,
		m.RenderErrors,
		m.RenderDuration,
		m.LayerCache,
		m.LayerLoadDuration,
		m.LoadErrors,
		m.BusinessesLoaded,
		m.BusinessesDropped,
		m.SnapshotsPublished,
		m.SnapshotsEnabled,
		m.RateLimited,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		DataReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "data_ready",
			Help:      help("1 once every geometry layer has been loaded, 0 otherwise."),
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      help("Dashboard renders by metrics mode."),
		}, []string{"mode"}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      help("Dashboard renders that failed."),
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      help("Duration of one filter, aggregate and present pass."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		LayerCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_cache_total",
			Help:      help("Load cache lookups by result."),
		}, []string{"result"}),
		LayerLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layer_load_duration_seconds",
			Help:      help("Time spent reading a source file from disk."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      help("Failed source file loads by kind."),
		}, []string{"kind"}),
		BusinessesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "businesses_loaded",
			Help:      help("Business records available after load."),
		}),
		BusinessesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "businesses_dropped_total",
			Help:      help("Workbook rows dropped for missing coordinates."),
		}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      help("Metrics snapshots sent to Kafka by outcome."),
		}, []string{"outcome"}),
		SnapshotsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshots_enabled",
			Help:      help("1 when snapshot publishing is enabled, 0 otherwise."),
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      help("API requests rejected by the rate limiter."),
		}),
	}
}

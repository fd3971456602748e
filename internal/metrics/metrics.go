package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	rowsIngested     *prometheus.CounterVec
	signalsScreened  *prometheus.CounterVec
	screenDuration   prometheus.Histogram
	tradesSimulated  prometheus.Counter
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	reportsArchived  prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.rowsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_rows_ingested_total",
			Help: "Total number of rows ingested, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	r.signalsScreened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_signals_screened_total",
			Help: "Total number of tickers screened, by result",
		},
		[]string{"result"},
	)
	r.screenDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sift_screen_duration_seconds",
			Help:    "Universe screening duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.tradesSimulated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sift_trades_simulated_total",
			Help: "Total number of simulated trades",
		},
	)
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sift_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
	r.reportsArchived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sift_reports_archived_total",
			Help: "Total number of report bundles archived",
		},
	)

	reg.MustRegister(r.rowsIngested)
	reg.MustRegister(r.signalsScreened)
	reg.MustRegister(r.screenDuration)
	reg.MustRegister(r.tradesSimulated)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.reportsArchived)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordIngest records ingested rows for a data kind.
func (r *Registry) RecordIngest(kind string, loaded, dropped int) {
	r.rowsIngested.WithLabelValues(kind, "loaded").Add(float64(loaded))
	r.rowsIngested.WithLabelValues(kind, "dropped").Add(float64(dropped))
}

// RecordScreen records a completed universe screen.
func (r *Registry) RecordScreen(passed, failed int, duration float64) {
	r.signalsScreened.WithLabelValues("pass").Add(float64(passed))
	r.signalsScreened.WithLabelValues("fail").Add(float64(failed))
	r.screenDuration.Observe(duration)
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, numTrades int, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
	r.tradesSimulated.Add(float64(numTrades))
}

// RecordReportArchived records an archived report bundle.
func (r *Registry) RecordReportArchived() {
	r.reportsArchived.Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

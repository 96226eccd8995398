package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Batch metrics
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oitracker_batches_total",
			Help: "Total number of batch runs",
		},
		[]string{"status"}, // status: success|partial|error|skipped
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oitracker_batch_duration_seconds",
			Help:    "Batch run duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	SymbolsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oitracker_symbols_total",
			Help: "Symbols processed by batch runs",
		},
		[]string{"outcome"}, // outcome: success|error
	)

	RowsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oitracker_rows_extracted_total",
			Help: "Rows extracted from the workbooks",
		},
		[]string{"kind"}, // kind: historical|live
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oitracker_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"path", "code"},
	)

	// Worker metrics
	WorkerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oitracker_worker_runs_total",
			Help: "Total number of worker iterations",
		},
		[]string{"worker", "outcome"}, // outcome: success|error|idle
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oitracker_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker iteration",
		},
		[]string{"worker"},
	)
)

var initOnce sync.Once

// Init registers all metrics with the default registry. Safe to call twice.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			BatchesTotal,
			BatchDuration,
			SymbolsTotal,
			RowsExtracted,
			HTTPRequests,
			WorkerRuns,
			WorkerLastRun,
		)
	})
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordBatch records a finished batch run
func RecordBatch(status string, duration time.Duration, succeeded, failed int) {
	BatchesTotal.WithLabelValues(status).Inc()
	BatchDuration.Observe(duration.Seconds())
	SymbolsTotal.WithLabelValues("success").Add(float64(succeeded))
	SymbolsTotal.WithLabelValues("error").Add(float64(failed))
}

// RecordRows records rows extracted for one symbol
func RecordRows(historical, live int) {
	RowsExtracted.WithLabelValues("historical").Add(float64(historical))
	RowsExtracted.WithLabelValues("live").Add(float64(live))
}

// RecordWorkerRun records one worker iteration
func RecordWorkerRun(worker, outcome string) {
	WorkerRuns.WithLabelValues(worker, outcome).Inc()
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReportRunsTotal counts finished report runs by terminal outcome.
	ReportRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdr_report_runs_total",
			Help: "Total number of finished CDR report runs",
		},
		[]string{"outcome"},
	)

	// RunDuration observes the wall-clock duration of report runs.
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cdr_report_run_duration_seconds",
			Help:    "Wall-clock duration of CDR report runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// PollTicksTotal counts status-check requests during report polling.
	PollTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cdr_report_poll_ticks_total",
			Help: "Total number of report status poll ticks",
		},
	)

	// RowsProcessedTotal counts CDR rows fed into the aggregator.
	RowsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cdr_rows_processed_total",
			Help: "Total number of CDR rows processed",
		},
	)

	// StoredReports tracks the number of reports currently stored on the
	// platform, as seen by the quota watcher.
	StoredReports = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cdr_stored_reports",
			Help: "Number of reports currently stored on the platform",
		},
	)
)

// Register adds all collectors to the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		ReportRunsTotal,
		RunDuration,
		PollTicksTotal,
		RowsProcessedTotal,
		StoredReports,
	)
}

// Handler returns an HTTP handler serving a registry with all service
// collectors plus the standard Go and process collectors.
func Handler() http.Handler {
	registry := prometheus.NewRegistry()
	Register(registry)
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

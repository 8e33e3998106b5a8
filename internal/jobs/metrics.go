package jobmetrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs       *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	reportRows *prometheus.CounterVec
	orders     *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration and run status, and
// returns the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddReportRows counts data rows uploaded for a report kind.
func (m *Metrics) AddReportRows(report string, companyID int64, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.reportRows.WithLabelValues(report, formatInt(companyID)).Add(float64(count))
}

// AddOrders counts purchase orders created from recommendations.
func (m *Metrics) AddOrders(companyID int64, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.orders.WithLabelValues(formatInt(companyID)).Add(float64(count))
}

func formatInt(v int64) string {
	if v <= 0 {
		return "0"
	}
	return strconv.FormatInt(v, 10)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onebeat_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onebeat_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onebeat_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reportRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onebeat_export_rows_total",
		Help: "Data rows uploaded per report kind and company.",
	}, []string{"report", "company"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onebeat_replenish_orders_total",
		Help: "Purchase orders created from replenishment recommendations.",
	}, []string{"company"})
	registerer.MustRegister(runs, failures, duration, reportRows, orders)
	return &Metrics{runs: runs, failures: failures, duration: duration, reportRows: reportRows, orders: orders}
}

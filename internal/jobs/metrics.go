package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	checked  prometheus.Counter
	drifted  prometheus.Counter
	repaired prometheus.Counter
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

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
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

// AddSweep records the outcome of one reconciliation sweep.
func (m *Metrics) AddSweep(checked, drifted, repaired int) {
	if m == nil {
		return
	}
	m.checked.Add(float64(checked))
	m.drifted.Add(float64(drifted))
	m.repaired.Add(float64(repaired))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "freelanceflow_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "freelanceflow_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freelanceflow_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	checked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "freelanceflow_reconcile_checked_total",
		Help: "Invoices inspected by the reconciliation sweep.",
	})
	drifted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "freelanceflow_reconcile_drift_total",
		Help: "Invoices whose stored status disagreed with their payments.",
	})
	repaired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "freelanceflow_reconcile_repairs_total",
		Help: "Invoice statuses rewritten by the reconciliation sweep.",
	})
	registerer.MustRegister(runs, failures, duration, checked, drifted, repaired)
	return &Metrics{runs: runs, failures: failures, duration: duration, checked: checked, drifted: drifted, repaired: repaired}
}

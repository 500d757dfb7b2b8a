package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronMetrics tracks the settlement maintenance scheduler.
type CronMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  prometheus.Counter
}

// NewCronMetrics registers the scheduler metrics on reg. A nil registerer
// yields a no-op recorder.
func NewCronMetrics(reg prometheus.Registerer) *CronMetrics {
	if reg == nil {
		return &CronMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plasa_cron_job_runs_total",
		Help: "Maintenance job runs by job and outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plasa_cron_job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
	}, []string{"job"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plasa_cron_cycles_skipped_total",
		Help: "Cycles skipped because another replica held the lock.",
	})
	reg.MustRegister(runs, duration, skipped)
	return &CronMetrics{runs: runs, duration: duration, skipped: skipped}
}

// ObserveRun records one job run with OutcomeSuccess or OutcomeFailure.
func (c *CronMetrics) ObserveRun(job, outcome string, elapsed time.Duration) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
}

// IncSkipped counts a cycle lost to another replica.
func (c *CronMetrics) IncSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

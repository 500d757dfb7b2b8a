package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for settlement operations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// SettlementMetrics tracks wallet settlement and revenue recognition.
type SettlementMetrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	hookFailures *prometheus.CounterVec
	revenue      *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on reg. A nil
// registerer yields a no-op recorder.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plasa_settlement_operations_total",
		Help: "Settlement operations by operation, order kind and outcome.",
	}, []string{"operation", "kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plasa_settlement_operation_duration_seconds",
		Help:    "Duration of settlement operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	hookFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plasa_settlement_hook_failures_total",
		Help: "Post-commit revenue hooks that failed and were swallowed.",
	}, []string{"hook"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plasa_revenue_recorded_total",
		Help: "Revenue rows recorded, by type and whether the row already existed.",
	}, []string{"type", "result"})
	reg.MustRegister(operations, duration, hookFailures, revenue)
	return &SettlementMetrics{
		operations:   operations,
		duration:     duration,
		hookFailures: hookFailures,
		revenue:      revenue,
	}
}

// ObserveOperation records one settlement operation.
func (m *SettlementMetrics) ObserveOperation(operation, kind, outcome string, elapsed time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind), normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(elapsed.Seconds())
}

// IncHookFailure counts a swallowed post-commit hook failure.
func (m *SettlementMetrics) IncHookFailure(hook string) {
	if m == nil || m.hookFailures == nil {
		return
	}
	m.hookFailures.WithLabelValues(normalizeLabel(hook)).Inc()
}

// IncRevenue counts a revenue write; result is "created" or "existing".
func (m *SettlementMetrics) IncRevenue(revenueType, result string) {
	if m == nil || m.revenue == nil {
		return
	}
	m.revenue.WithLabelValues(normalizeLabel(revenueType), normalizeLabel(result)).Inc()
}

// Package metrics provides observability for the repository layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RepositoryMetrics tracks operation counts and latencies per entity.
type RepositoryMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRepositoryMetrics registers the repository metrics against reg.
func NewRepositoryMetrics(reg prometheus.Registerer) *RepositoryMetrics {
	factory := promauto.With(reg)
	return &RepositoryMetrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "account_repository_operations_total",
			Help: "Total repository operations by entity, operation and outcome",
		}, []string{"entity", "operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "account_repository_operation_duration_seconds",
			Help:    "Duration of repository operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity", "operation"}),
	}
}

// Observe records one finished operation. Safe to call on a nil receiver
// so repositories work without metrics wired.
func (m *RepositoryMetrics) Observe(entity, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(entity, operation, outcome).Inc()
	m.duration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

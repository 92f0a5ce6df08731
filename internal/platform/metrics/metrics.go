package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the registry API. Everything
// is labelled by collection and operation so one set of collectors covers
// every entity.
type Metrics struct {
	Operations     *prometheus.CounterVec
	OperationError *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
}

// New creates and registers collectors on the given registerer. Tests pass
// a private registry to avoid cross-test collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cosi_operations_total",
			Help: "Total registry operations by collection and operation.",
		}, []string{"collection", "operation"}),
		OperationError: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cosi_operation_errors_total",
			Help: "Failed registry operations by collection and operation.",
		}, []string{"collection", "operation"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cosi_operation_duration_seconds",
			Help:    "Registry operation latency by collection and operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"collection", "operation"}),
	}
}

// Observe records one completed operation.
func (m *Metrics) Observe(collection, operation string, seconds float64, err error) {
	m.Operations.WithLabelValues(collection, operation).Inc()
	m.Duration.WithLabelValues(collection, operation).Observe(seconds)
	if err != nil {
		m.OperationError.WithLabelValues(collection, operation).Inc()
	}
}

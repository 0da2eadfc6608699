package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver is an Observer that records operation events as
// Prometheus metrics: a counter of operations by outcome, a latency
// histogram, and a size histogram.
//
// Each observer registers its collectors exactly once at construction time;
// create one observer per registry and share it across components.
type PrometheusObserver struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationSize     *prometheus.HistogramVec
}

// NewPrometheusObserver creates a PrometheusObserver and registers its
// collectors with the given registerer. It panics if a collector with the
// same name is already registered, mirroring prometheus.MustRegister.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "operations_total",
				Help: "Total number of observed operations by component, operation and status",
			},
			[]string{"component", "operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "operation_duration_seconds",
				Help:    "Duration of observed operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component", "operation"},
		),
		operationSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "operation_size",
				Help:    "Operation-specific size: rows returned, rows affected or bytes written",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"component", "operation"},
		),
	}

	reg.MustRegister(o.operationsTotal, o.operationDuration, o.operationSize)
	return o
}

// ObserveOperation records the operation into the underlying metrics.
func (o *PrometheusObserver) ObserveOperation(ctx OperationContext) {
	status := "success"
	if ctx.Error != nil {
		status = "error"
	}

	o.operationsTotal.WithLabelValues(ctx.Component, ctx.Operation, status).Inc()
	o.operationDuration.WithLabelValues(ctx.Component, ctx.Operation).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		o.operationSize.WithLabelValues(ctx.Component, ctx.Operation).Observe(float64(ctx.Size))
	}
}

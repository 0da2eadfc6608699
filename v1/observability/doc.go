// Package observability defines the operation-event contract shared by the
// persistence components, plus context helpers for request correlation.
//
// # Operation Events
//
// Instrumented components report every completed operation to an optional
// Observer as an OperationContext: component and operation names, the
// resource touched, duration, outcome and size. Components hold at most one
// observer and skip reporting entirely when none is configured, so the hook
// costs nothing unless wired.
//
//	store := mysql.NewStore[Dummy](cfg, storeCfg).WithObserver(obs)
//
// # Prometheus Integration
//
// PrometheusObserver is the production implementation. It exposes three
// collectors per registry:
//
//	operations_total{component, operation, status}
//	operation_duration_seconds{component, operation}
//	operation_size{component, operation}
//
// # Correlation IDs
//
// WithCorrelationID attaches a request-scoped id to a context.Context;
// components stamp it into log entries and typed errors. Use it at the edge
// of the system where a request id is first known:
//
//	ctx = observability.WithCorrelationID(ctx, requestID)
//
// # FX Module Integration
//
//	app := fx.New(
//	    observability.FXModule, // provides *PrometheusObserver and Observer
//	    // other modules...
//	)
package observability

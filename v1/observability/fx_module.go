package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides a Prometheus-backed Observer.
// Components that accept an optional Observer dependency pick it up
// automatically when this module is part of the application.
//
// Usage:
//
//	app := fx.New(
//	    observability.FXModule,
//	    // other modules...
//	)
var FXModule = fx.Module("observability",
	fx.Provide(
		NewObserverWithDI,
		fx.Annotate(
			ProvideObserver,
			fx.As(new(Observer)),
		),
	),
)

// Params groups the dependencies needed to create the Prometheus observer.
type Params struct {
	fx.In

	// Registry is an optional dedicated Prometheus registry. When absent,
	// collectors are registered with the process-wide default registerer.
	Registry *prometheus.Registry `optional:"true"`
}

// NewObserverWithDI creates a PrometheusObserver using dependency injection.
// A *prometheus.Registry provided elsewhere in the container takes
// precedence over the default registerer.
func NewObserverWithDI(params Params) *PrometheusObserver {
	if params.Registry != nil {
		return NewPrometheusObserver(params.Registry)
	}
	return NewPrometheusObserver(prometheus.DefaultRegisterer)
}

// ProvideObserver exposes the concrete observer under the Observer interface.
func ProvideObserver(o *PrometheusObserver) Observer {
	return o
}

// Package observability wires OpenTelemetry tracing and metrics providers.
//
//	observability.NewObservabilityModule()
//
//	// tests
//	observability.NewObservabilityModule(
//	    observability.WithoutTracing(),
//	    observability.WithoutMetrics(),
//	)
package observability

import (
	"github.com/Sokol111/tagdata/pkg/observability/config"
	"github.com/Sokol111/tagdata/pkg/observability/metrics"
	"github.com/Sokol111/tagdata/pkg/observability/tracing"
	"go.uber.org/fx"
)

type options struct {
	config []config.Option
}

// Option configures the observability module.
type Option func(*options)

func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.config = append(o.config, config.WithConfig(cfg))
	}
}

func WithoutTracing() Option {
	return func(o *options) {
		o.config = append(o.config, config.WithDisableTracing())
	}
}

func WithoutMetrics() Option {
	return func(o *options) {
		o.config = append(o.config, config.WithDisableMetrics())
	}
}

// NewObservabilityModule provides config, trace.TracerProvider and metric.MeterProvider.
func NewObservabilityModule(opts ...Option) fx.Option {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		config.NewObservabilityConfigModule(o.config...),
		tracing.NewTracingModule(),
		metrics.NewMetricsModule(),
	)
}

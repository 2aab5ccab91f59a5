package tracing

import (
	"context"

	appconfig "github.com/Sokol111/tagdata/pkg/core/config"
	otelconfig "github.com/Sokol111/tagdata/pkg/observability/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type providerParams struct {
	fx.In
	Lc     fx.Lifecycle
	Log    *zap.Logger
	Cfg    otelconfig.Config
	AppCfg appconfig.AppConfig
}

// NewTracingModule provides trace.TracerProvider: a noop provider when
// tracing is disabled, an SDK provider registered globally otherwise.
func NewTracingModule() fx.Option {
	return fx.Options(
		fx.Provide(provideTracerProvider),
		fx.Invoke(func(trace.TracerProvider) {}),
	)
}

func provideTracerProvider(p providerParams) (trace.TracerProvider, error) {
	if !p.Cfg.Tracing.Enabled {
		p.Log.Info("tracing: disabled")
		return noop.NewTracerProvider(), nil
	}

	tp, err := newTracerProvider(context.Background(), p.Log, p.Cfg, p.AppCfg)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			otel.SetTracerProvider(tp)
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))
			p.Log.Info("tracing initialized",
				zap.String("endpoint", p.Cfg.OtelCollectorEndpoint),
				zap.Float64("sampleRatio", p.Cfg.Tracing.SampleRatio),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, otelconfig.DefaultShutdownTimeout)
			defer cancel()
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}

package metrics

import (
	"context"
	"fmt"

	appconfig "github.com/Sokol111/tagdata/pkg/core/config"
	otelconfig "github.com/Sokol111/tagdata/pkg/observability/config"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
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

// NewMetricsModule provides metric.MeterProvider: a noop provider when
// metrics are disabled, an OTLP exporting provider registered globally otherwise.
func NewMetricsModule() fx.Option {
	return fx.Options(
		fx.Provide(provideMeterProvider),
		fx.Invoke(func(metric.MeterProvider) {}),
	)
}

func provideMeterProvider(p providerParams) (metric.MeterProvider, error) {
	if !p.Cfg.Metrics.Enabled {
		p.Log.Info("metrics: disabled")
		return noop.NewMeterProvider(), nil
	}

	mp, err := newMeterProvider(context.Background(), p.Cfg, p.AppCfg)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			otel.SetMeterProvider(mp)
			if p.Cfg.Metrics.Runtime {
				if err := otelruntime.Start(
					otelruntime.WithMeterProvider(mp),
					otelruntime.WithMinimumReadMemStatsInterval(otelconfig.DefaultRuntimeStatsInterval),
				); err != nil {
					return fmt.Errorf("failed to start runtime metrics: %w", err)
				}
			}
			p.Log.Info("metrics initialized",
				zap.String("endpoint", p.Cfg.OtelCollectorEndpoint),
				zap.Duration("interval", p.Cfg.Metrics.Interval),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, otelconfig.DefaultShutdownTimeout)
			defer cancel()
			return mp.Shutdown(ctx)
		},
	})
	return mp, nil
}

package metrics

import (
	"context"
	"fmt"

	appconfig "github.com/Sokol111/tagdata/pkg/core/config"
	otelconfig "github.com/Sokol111/tagdata/pkg/observability/config"
	otelinternal "github.com/Sokol111/tagdata/pkg/observability/internal"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newMeterProvider(ctx context.Context, cfg otelconfig.Config, app appconfig.AppConfig) (*sdkmetric.MeterProvider, error) {
	if cfg.OtelCollectorEndpoint == "" {
		return nil, fmt.Errorf("metrics: otel-collector-endpoint is required")
	}

	res, err := otelinternal.NewResource(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("failed to build metrics resource: %w", err)
	}

	exp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OtelCollectorEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Metrics.Interval))),
		sdkmetric.WithResource(res),
	), nil
}

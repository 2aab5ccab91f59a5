package metrics

import (
	"testing"

	appconfig "github.com/Sokol111/tagdata/pkg/core/config"
	otelconfig "github.com/Sokol111/tagdata/pkg/observability/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewMetricsModule_Disabled(t *testing.T) {
	var mp metric.MeterProvider
	app := fxtest.New(t,
		fx.Supply(zap.NewNop(), otelconfig.Config{}, appconfig.AppConfig{ServiceName: "test"}),
		NewMetricsModule(),
		fx.Populate(&mp),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.IsType(t, noop.MeterProvider{}, mp)
}

func TestNewMeterProvider_RequiresEndpoint(t *testing.T) {
	_, err := newMeterProvider(t.Context(), otelconfig.Config{}, appconfig.AppConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "otel-collector-endpoint is required")
}

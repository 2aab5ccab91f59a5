package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]any
		expected Config
	}{
		{
			name:   "missing section",
			values: map[string]any{},
			expected: Config{
				Tracing: TracingConfig{SampleRatio: DefaultSampleRatio},
				Metrics: MetricsConfig{Interval: DefaultMetricsInterval},
			},
		},
		{
			name: "full section",
			values: map[string]any{
				"observability.otel-collector-endpoint": "collector:4317",
				"observability.tracing.enabled":         true,
				"observability.tracing.sample-ratio":    0.25,
				"observability.metrics.enabled":         true,
				"observability.metrics.interval":        "30s",
				"observability.metrics.runtime":         true,
			},
			expected: Config{
				OtelCollectorEndpoint: "collector:4317",
				Tracing:               TracingConfig{Enabled: true, SampleRatio: 0.25},
				Metrics:               MetricsConfig{Enabled: true, Interval: 30 * time.Second, Runtime: true},
			},
		},
		{
			name:   "out of range ratio",
			values: map[string]any{"observability.tracing.sample-ratio": 3.0},
			expected: Config{
				Tracing: TracingConfig{SampleRatio: DefaultSampleRatio},
				Metrics: MetricsConfig{Interval: DefaultMetricsInterval},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}

			// When
			cfg, err := newConfig(v)

			// Then
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestProvideConfig_DisableOptions(t *testing.T) {
	o := &options{}
	WithConfig(Config{
		Tracing: TracingConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
	})(o)
	WithDisableTracing()(o)
	WithDisableMetrics()(o)

	cfg, err := provideConfig(o, viper.New(), zap.NewNop())

	require.NoError(t, err)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultMetricsInterval, cfg.Metrics.Interval)
}

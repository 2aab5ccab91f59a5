package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DefaultMetricsInterval      = 10 * time.Second
	DefaultSampleRatio          = 1.0
	DefaultShutdownTimeout      = 5 * time.Second
	DefaultRuntimeStatsInterval = time.Second
)

type Config struct {
	// OtelCollectorEndpoint is the OTLP gRPC endpoint. Empty keeps traces in
	// process and disables the metrics exporter.
	OtelCollectorEndpoint string        `mapstructure:"otel-collector-endpoint"`
	Tracing               TracingConfig `mapstructure:"tracing"`
	Metrics               MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample-ratio"`
}

type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	// Runtime adds Go runtime metrics.
	Runtime bool `mapstructure:"runtime"`
}

type options struct {
	config         *Config
	disableTracing bool
	disableMetrics bool
}

// Option configures the observability config module.
type Option func(*options)

func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

func WithDisableTracing() Option {
	return func(o *options) {
		o.disableTracing = true
	}
}

func WithDisableMetrics() Option {
	return func(o *options) {
		o.disableMetrics = true
	}
}

// NewObservabilityConfigModule provides Config loaded from the "observability"
// viper section unless WithConfig is given.
func NewObservabilityConfigModule(opts ...Option) fx.Option {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.Supply(o),
		fx.Provide(provideConfig),
	)
}

func provideConfig(o *options, v *viper.Viper, log *zap.Logger) (Config, error) {
	var cfg Config
	if o.config != nil {
		cfg = *o.config
	} else {
		loaded, err := newConfig(v)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	applyDefaults(&cfg)
	if o.disableTracing {
		cfg.Tracing.Enabled = false
	}
	if o.disableMetrics {
		cfg.Metrics.Enabled = false
	}

	log.Info("loaded observability config",
		zap.Bool("tracing", cfg.Tracing.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)
	return cfg, nil
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	sub := v.Sub("observability")
	if sub == nil {
		applyDefaults(&cfg)
		return cfg, nil
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load observability config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Metrics.Interval <= 0 {
		cfg.Metrics.Interval = DefaultMetricsInterval
	}
	if cfg.Tracing.SampleRatio <= 0 || cfg.Tracing.SampleRatio > 1 {
		cfg.Tracing.SampleRatio = DefaultSampleRatio
	}
}

package access

import (
	"context"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type moduleOptions struct {
	config *Config
}

// ModuleOption configures the access module.
type ModuleOption func(*moduleOptions)

// WithModuleConfig provides a static Config instead of loading it from viper.
func WithModuleConfig(cfg Config) ModuleOption {
	return func(o *moduleOptions) {
		o.config = &cfg
	}
}

// NewAccessModule provides the serializer registry and the access Client.
// Serializers must be registered from fx.Invoke functions; the registry is
// frozen when the application starts.
func NewAccessModule(opts ...ModuleOption) fx.Option {
	o := &moduleOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Module("tagdata-access",
		fx.Supply(o),
		fx.Provide(
			provideConfig,
			provideRegistry,
			provideClient,
		),
	)
}

func provideConfig(o *moduleOptions, v *viper.Viper) (Config, error) {
	if o.config != nil {
		cfg := *o.config
		applyDefaults(&cfg)
		return cfg, nil
	}
	return newConfig(v)
}

func provideRegistry(lc fx.Lifecycle, log *zap.Logger) *serializer.Registry {
	reg := serializer.NewRegistry(serializer.WithLogger(log))
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			reg.Freeze()
			log.Info("serializer registry frozen")
			return nil
		},
	})
	return reg
}

type clientParams struct {
	fx.In
	Registry       *serializer.Registry
	Config         Config
	Log            *zap.Logger
	TracerProvider trace.TracerProvider `optional:"true"`
	MeterProvider  metric.MeterProvider `optional:"true"`
}

func provideClient(p clientParams) (*Client, error) {
	opts := []Option{
		WithConfig(p.Config),
		WithLogger(p.Log.Named("tagdata.access")),
	}
	if p.TracerProvider != nil {
		opts = append(opts, WithTracerProvider(p.TracerProvider))
	}
	if p.MeterProvider != nil {
		opts = append(opts, WithMeterProvider(p.MeterProvider))
	}
	return NewClient(p.Registry, opts...)
}

package mongo

import (
	"context"

	"github.com/Sokol111/tagdata/pkg/host"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type moduleOptions struct {
	config *Config
}

// ModuleOption configures the mongo store module.
type ModuleOption func(*moduleOptions)

// WithConfig provides a static Config instead of loading the "mongo" viper section.
func WithConfig(cfg Config) ModuleOption {
	return func(o *moduleOptions) {
		o.config = &cfg
	}
}

// NewMongoStoreModule provides host.Store and *Store backed by MongoDB. The
// client connects on start and disconnects on stop.
func NewMongoStoreModule(opts ...ModuleOption) fx.Option {
	o := &moduleOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Module("tagdata-mongo",
		fx.Supply(o),
		fx.Provide(
			provideConfig,
			provideStore,
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

func provideStore(lc fx.Lifecycle, log *zap.Logger, conf Config) (host.Store, *Store, error) {
	log = log.Named("tagdata.mongo")
	c, err := newClient(log, conf)
	if err != nil {
		return nil, nil, err
	}

	lc.Append(fx.Hook{
		OnStart: c.connect,
		OnStop: func(ctx context.Context) error {
			return c.disconnect(ctx)
		},
	})

	s := NewStore(c.collection(), conf, log)
	return s, s, nil
}

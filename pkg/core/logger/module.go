package logger

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type moduleOptions struct {
	config *Config
}

// Option configures the logging module.
type Option func(*moduleOptions)

// WithLoggerConfig provides a static Config instead of loading it from viper.
func WithLoggerConfig(cfg Config) Option {
	return func(o *moduleOptions) {
		o.config = &cfg
	}
}

// NewZapLoggingModule provides *zap.Logger and zap.AtomicLevel and routes
// fx's own events through the same logger.
func NewZapLoggingModule(opts ...Option) fx.Option {
	o := &moduleOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.Supply(o),
		fx.Provide(
			provideConfig,
			provideLogger,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

func provideConfig(o *moduleOptions, v *viper.Viper) (Config, error) {
	if o.config != nil {
		return *o.config, nil
	}
	return newConfig(v)
}

func provideLogger(lc fx.Lifecycle, conf Config) (*zap.Logger, zap.AtomicLevel, error) {
	log, level, err := newLogger(conf)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to create logger: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stderr and stdout cannot be synced on some platforms
			if err := log.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
				return err
			}
			return nil
		},
	})
	return log, level, nil
}

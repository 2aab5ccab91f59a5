// Package core wires process-level infrastructure: environment, config and logging.
package core

import (
	"time"

	"github.com/Sokol111/tagdata/pkg/core/config"
	"github.com/Sokol111/tagdata/pkg/core/logger"
	"go.uber.org/fx"
)

type coreOptions struct {
	appConfig     *config.AppConfig
	loggerConfig  *logger.Config
	configPath    string
	disableDotEnv bool
	noConfigFile  bool
}

// Option configures the core module.
type Option func(*coreOptions)

func WithAppConfig(cfg config.AppConfig) Option {
	return func(o *coreOptions) {
		o.appConfig = &cfg
	}
}

func WithLoggerConfig(cfg logger.Config) Option {
	return func(o *coreOptions) {
		o.loggerConfig = &cfg
	}
}

// WithConfigPath reads the given config file instead of TAGDATA_CONFIG_FILE.
func WithConfigPath(path string) Option {
	return func(o *coreOptions) {
		o.configPath = path
	}
}

func WithoutEnvFile() Option {
	return func(o *coreOptions) {
		o.disableDotEnv = true
	}
}

func WithoutConfigFile() Option {
	return func(o *coreOptions) {
		o.noConfigFile = true
	}
}

// NewCoreModule provides AppConfig, *viper.Viper and *zap.Logger.
//
//	core.NewCoreModule(
//	    core.WithoutEnvFile(),
//	    core.WithoutConfigFile(),
//	    core.WithLoggerConfig(logger.Config{Level: zapcore.DebugLevel}),
//	)
func NewCoreModule(opts ...Option) fx.Option {
	o := &coreOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.StartTimeout(time.Minute),
		fx.StopTimeout(time.Minute),

		dotEnvModule(o),
		appConfigModule(o),
		viperModule(o),
		loggerModule(o),
	)
}

func dotEnvModule(o *coreOptions) fx.Option {
	if o.disableDotEnv {
		return fx.Options()
	}
	return config.NewDotEnvModule()
}

func appConfigModule(o *coreOptions) fx.Option {
	if o.appConfig != nil {
		return config.NewAppConfigModule(config.WithAppConfig(*o.appConfig))
	}
	return config.NewAppConfigModule()
}

func viperModule(o *coreOptions) fx.Option {
	switch {
	case o.noConfigFile:
		return config.NewViperModule(config.WithoutConfigFile())
	case o.configPath != "":
		return config.NewViperModule(config.WithConfigPath(o.configPath))
	}
	return config.NewViperModule()
}

func loggerModule(o *coreOptions) fx.Option {
	if o.loggerConfig != nil {
		return logger.NewZapLoggingModule(logger.WithLoggerConfig(*o.loggerConfig))
	}
	return logger.NewZapLoggingModule()
}

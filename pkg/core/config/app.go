package config

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	envServiceName    = "TAGDATA_SERVICE_NAME"
	envServiceVersion = "TAGDATA_SERVICE_VERSION"
	envEnvironment    = "TAGDATA_ENV"
	envConfigFile     = "TAGDATA_CONFIG_FILE"
)

const (
	defaultServiceName = "tagdata"
	defaultVersion     = "dev"
	defaultEnvironment = "local"
)

// AppConfig identifies the running process. It is read from the environment
// and feeds the telemetry resource and the config file lookup.
type AppConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// ConfigFile is empty when no config file should be read.
	ConfigFile string
}

type appOptions struct {
	config *AppConfig
}

// AppOption configures the application config module.
type AppOption func(*appOptions)

// WithAppConfig provides a static AppConfig instead of reading the environment.
func WithAppConfig(cfg AppConfig) AppOption {
	return func(o *appOptions) {
		o.config = &cfg
	}
}

func NewAppConfigModule(opts ...AppOption) fx.Option {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Module("appconfig",
		fx.Provide(func() AppConfig {
			if o.config != nil {
				return *o.config
			}
			return LoadAppConfig()
		}),
		fx.Invoke(func(log *zap.Logger, cfg AppConfig) {
			log.Info("loaded application configuration",
				zap.String("service", cfg.ServiceName),
				zap.String("version", cfg.ServiceVersion),
				zap.String("environment", cfg.Environment),
				zap.String("configFile", cfg.ConfigFile),
			)
		}),
	)
}

// LoadAppConfig reads AppConfig from TAGDATA_* environment variables,
// falling back to defaults for anything unset.
func LoadAppConfig() AppConfig {
	return AppConfig{
		ServiceName:    getenv(envServiceName, defaultServiceName),
		ServiceVersion: getenv(envServiceVersion, defaultVersion),
		Environment:    getenv(envEnvironment, defaultEnvironment),
		ConfigFile:     os.Getenv(envConfigFile),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

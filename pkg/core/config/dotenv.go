package config

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type dotenvOptions struct {
	paths []string
}

// DotEnvOption configures the dotenv module.
type DotEnvOption func(*dotenvOptions)

// WithDotEnvPath replaces the default ".env" path. It may be repeated.
func WithDotEnvPath(path string) DotEnvOption {
	return func(o *dotenvOptions) {
		o.paths = append(o.paths, path)
	}
}

// NewDotEnvModule loads .env files into the process environment. Loading
// happens when the module is built so AppConfig and viper see the values.
// Variables already set are not overridden.
func NewDotEnvModule(opts ...DotEnvOption) fx.Option {
	o := &dotenvOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.paths) == 0 {
		o.paths = []string{".env"}
	}

	loaded := LoadDotEnv(o.paths...)

	return fx.Module("dotenv",
		fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					if len(loaded) > 0 {
						log.Info("loaded .env files", zap.Strings("paths", loaded))
					} else {
						log.Debug("no .env file loaded", zap.Strings("paths", o.paths))
					}
					return nil
				},
			})
		}),
	)
}

// LoadDotEnv loads every existing file in paths and returns the ones loaded.
func LoadDotEnv(paths ...string) []string {
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

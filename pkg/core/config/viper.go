package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type viperOptions struct {
	path         *string
	noConfigFile bool
}

// ViperOption configures the viper module.
type ViperOption func(*viperOptions)

// WithConfigPath reads path instead of AppConfig.ConfigFile.
func WithConfigPath(path string) ViperOption {
	return func(o *viperOptions) {
		o.path = &path
	}
}

// WithoutConfigFile provides a viper instance backed by the environment only.
func WithoutConfigFile() ViperOption {
	return func(o *viperOptions) {
		o.noConfigFile = true
	}
}

// NewViperModule provides *viper.Viper. Environment variables override file
// values with dots and dashes mapped to underscores, so tagdata.store.codec
// is TAGDATA_STORE_CODEC.
func NewViperModule(opts ...ViperOption) fx.Option {
	o := &viperOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Module("viper",
		fx.Provide(func(app AppConfig, log *zap.Logger) (*viper.Viper, error) {
			path := app.ConfigFile
			switch {
			case o.noConfigFile:
				path = ""
			case o.path != nil:
				path = *o.path
			}
			v, err := NewViper(path)
			if err != nil {
				return nil, err
			}
			log.Info("configuration loaded",
				zap.String("configFile", v.ConfigFileUsed()),
				zap.Int("settingsCount", len(v.AllKeys())),
			)
			return v, nil
		}),
	)
}

// NewViper returns a viper instance reading path (when not empty) and the
// environment.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", path, err)
	}
	return v, nil
}

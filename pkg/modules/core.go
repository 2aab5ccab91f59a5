package modules

import (
	"github.com/Sokol111/tagdata/pkg/core"
	"go.uber.org/fx"
)

// NewCoreModule provides core functionality: dotenv, app config, viper and logger.
func NewCoreModule(opts ...core.Option) fx.Option {
	return core.NewCoreModule(opts...)
}

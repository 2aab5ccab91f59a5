package modules

import (
	"github.com/Sokol111/tagdata/pkg/access"
	"go.uber.org/fx"
)

// NewAccessModule provides the serializer registry and the access client.
func NewAccessModule(opts ...access.ModuleOption) fx.Option {
	return access.NewAccessModule(opts...)
}

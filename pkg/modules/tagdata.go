// Package modules aggregates the fx modules a service needs to run access
// cycles against stored hosts.
//
//	fx.New(
//	    modules.NewTagDataModule(modules.WithStoreKind(modules.StoreMongo)),
//	    fx.Invoke(registerSerializers),
//	)
package modules

import (
	"github.com/Sokol111/tagdata/pkg/access"
	"github.com/Sokol111/tagdata/pkg/core"
	"github.com/Sokol111/tagdata/pkg/observability"
	"go.uber.org/fx"
)

type options struct {
	core          []core.Option
	observability []observability.Option
	access        []access.ModuleOption
	storeKind     StoreKind
}

type Option func(*options)

func WithCoreOptions(opts ...core.Option) Option {
	return func(o *options) {
		o.core = append(o.core, opts...)
	}
}

func WithObservabilityOptions(opts ...observability.Option) Option {
	return func(o *options) {
		o.observability = append(o.observability, opts...)
	}
}

func WithAccessOptions(opts ...access.ModuleOption) Option {
	return func(o *options) {
		o.access = append(o.access, opts...)
	}
}

// WithStoreKind picks the store. Memory is the default.
func WithStoreKind(kind StoreKind) Option {
	return func(o *options) {
		o.storeKind = kind
	}
}

// NewTagDataModule combines core, observability, persistence and access.
func NewTagDataModule(opts ...Option) fx.Option {
	o := &options{storeKind: StoreMemory}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		NewCoreModule(o.core...),
		NewObservabilityModule(o.observability...),
		NewPersistenceModule(o.storeKind),
		NewAccessModule(o.access...),
	)
}

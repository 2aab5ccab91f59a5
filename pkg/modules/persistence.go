package modules

import (
	"fmt"
	"strings"

	"github.com/Sokol111/tagdata/pkg/host/memory"
	"github.com/Sokol111/tagdata/pkg/host/mongo"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// StoreKind selects the host.Store implementation.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreMongo  StoreKind = "mongo"
)

func ParseStoreKind(s string) (StoreKind, error) {
	switch k := StoreKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", StoreMemory:
		return StoreMemory, nil
	case StoreMongo:
		return StoreMongo, nil
	default:
		return "", fmt.Errorf("unknown store kind %q", s)
	}
}

// StoreKindFromConfig reads tagdata.store.kind. Modules are chosen before
// the application is built, so the value is read from v directly.
func StoreKindFromConfig(v *viper.Viper) (StoreKind, error) {
	return ParseStoreKind(v.GetString("tagdata.store.kind"))
}

// NewPersistenceModule provides host.Store backed by the given kind.
func NewPersistenceModule(kind StoreKind) fx.Option {
	switch kind {
	case StoreMongo:
		return mongo.NewMongoStoreModule()
	case StoreMemory, "":
		return memory.NewMemoryStoreModule()
	}
	return fx.Error(fmt.Errorf("unknown store kind %q", kind))
}

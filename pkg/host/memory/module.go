package memory

import (
	"fmt"

	"github.com/Sokol111/tagdata/pkg/host"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Codec string `mapstructure:"codec"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{Codec: "avro"}
	if sub := v.Sub("tagdata.store"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load memory store config: %w", err)
		}
	}
	return cfg, nil
}

// NewMemoryStoreModule provides an in-process host.Store.
func NewMemoryStoreModule() fx.Option {
	return fx.Module("tagdata-memory-store",
		fx.Provide(
			newConfig,
			provideStore,
		),
	)
}

func provideStore(cfg Config, log *zap.Logger) (host.Store, *Store, error) {
	codec, err := CodecFor(cfg.Codec)
	if err != nil {
		return nil, nil, err
	}
	s := NewStore(WithCodec(codec), WithLogger(log.Named("memory-store")))
	log.Info("memory store ready", zap.String("codec", codec.Name()))
	return s, s, nil
}

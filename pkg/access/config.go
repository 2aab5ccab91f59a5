package access

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const defaultAbortLogInterval = time.Minute

type Config struct {
	// AllowUndeclared lets specification cycles acquire regions holding keys
	// the specification does not declare.
	AllowUndeclared bool `mapstructure:"allow-undeclared"`

	// AbortLogInterval limits WARN logs for aborted cycles to one per region per interval.
	AbortLogInterval time.Duration `mapstructure:"abort-log-interval"`
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if sub := v.Sub("tagdata.access"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load access config: %w", err)
		}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AbortLogInterval <= 0 {
		cfg.AbortLogInterval = defaultAbortLogInterval
	}
}

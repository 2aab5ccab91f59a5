package logger

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level is the minimum enabled level.
	Level zapcore.Level `mapstructure:"level"`

	// Development switches to console encoding with human-readable output.
	Development bool `mapstructure:"development"`

	// OutputPaths are zap sink URLs or file paths. Empty means stderr.
	OutputPaths []string `mapstructure:"output-paths"`

	ErrorOutputPaths []string `mapstructure:"error-output-paths"`

	// StacktraceLevel is the minimum level that captures stacktraces. Defaults to error.
	StacktraceLevel zapcore.Level `mapstructure:"stacktrace-level"`
}

func defaultConfig() Config {
	return Config{
		Level:           zapcore.InfoLevel,
		StacktraceLevel: zapcore.ErrorLevel,
	}
}

func (c Config) Validate() error {
	if err := validatePaths(c.OutputPaths, "output-paths"); err != nil {
		return err
	}
	return validatePaths(c.ErrorOutputPaths, "error-output-paths")
}

func validatePaths(paths []string, field string) error {
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s[%d] cannot be empty or whitespace", field, i)
		}
	}
	return nil
}

func newConfig(v *viper.Viper) (Config, error) {
	sub := v.Sub("logger")
	if sub == nil {
		return defaultConfig(), nil
	}

	// levels are decoded as strings so "DEBUG" and "debug" both work
	var raw struct {
		Level            string   `mapstructure:"level"`
		Development      bool     `mapstructure:"development"`
		OutputPaths      []string `mapstructure:"output-paths"`
		ErrorOutputPaths []string `mapstructure:"error-output-paths"`
		StacktraceLevel  string   `mapstructure:"stacktrace-level"`
	}
	if err := sub.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("failed to load logger config: %w", err)
	}

	cfg := defaultConfig()
	cfg.Development = raw.Development
	cfg.OutputPaths = raw.OutputPaths
	cfg.ErrorOutputPaths = raw.ErrorOutputPaths

	if raw.Level != "" {
		lvl, err := zapcore.ParseLevel(raw.Level)
		if err != nil {
			return Config{}, fmt.Errorf("invalid log level '%s': %w", raw.Level, err)
		}
		cfg.Level = lvl
	}
	if raw.StacktraceLevel != "" {
		lvl, err := zapcore.ParseLevel(raw.StacktraceLevel)
		if err != nil {
			return Config{}, fmt.Errorf("invalid stacktrace level '%s': %w", raw.StacktraceLevel, err)
		}
		cfg.StacktraceLevel = lvl
	}

	return cfg, nil
}

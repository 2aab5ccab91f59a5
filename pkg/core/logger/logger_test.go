package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "production", cfg: Config{Level: zapcore.InfoLevel, StacktraceLevel: zapcore.ErrorLevel}},
		{name: "development", cfg: Config{Level: zapcore.DebugLevel, Development: true, StacktraceLevel: zapcore.ErrorLevel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := zap.L()
			t.Cleanup(func() { zap.ReplaceGlobals(original) })
			tt.cfg.OutputPaths = []string{t.TempDir() + "/out.log"}

			// When
			log, level, err := newLogger(tt.cfg)

			// Then: the logger is global and honours the level
			require.NoError(t, err)
			assert.Same(t, log, zap.L())
			assert.Equal(t, tt.cfg.Level, level.Level())
			assert.True(t, log.Core().Enabled(tt.cfg.Level))
		})
	}
}

func TestNewLogger_AtomicLevelIsLive(t *testing.T) {
	original := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(original) })

	log, level, err := newLogger(Config{
		Level:       zapcore.InfoLevel,
		OutputPaths: []string{t.TempDir() + "/out.log"},
	})
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))

	level.SetLevel(zapcore.DebugLevel)

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, _, err := newLogger(Config{OutputPaths: []string{""}})

	assert.ErrorContains(t, err, "logger configuration validation failed")
}

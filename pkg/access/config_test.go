package access

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]any
		expected Config
	}{
		{
			name:     "defaults when section is missing",
			values:   map[string]any{},
			expected: Config{AbortLogInterval: time.Minute},
		},
		{
			name: "reads kebab-case keys",
			values: map[string]any{
				"tagdata.access.allow-undeclared":   true,
				"tagdata.access.abort-log-interval": "5s",
			},
			expected: Config{AllowUndeclared: true, AbortLogInterval: 5 * time.Second},
		},
		{
			name: "non-positive interval falls back to default",
			values: map[string]any{
				"tagdata.access.abort-log-interval": "0s",
			},
			expected: Config{AbortLogInterval: time.Minute},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}

			// Act
			cfg, err := newConfig(v)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestNewConfig_InvalidDuration(t *testing.T) {
	v := viper.New()
	v.Set("tagdata.access.abort-log-interval", "soon")

	_, err := newConfig(v)

	assert.ErrorContains(t, err, "failed to load access config")
}

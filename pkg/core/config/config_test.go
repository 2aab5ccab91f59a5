package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewViper(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
		check   func(t *testing.T, v *viper.Viper)
	}{
		{
			name:    "yaml file",
			file:    "config.yaml",
			content: "tagdata:\n  store:\n    codec: bson\n",
			check: func(t *testing.T, v *viper.Viper) {
				assert.Equal(t, "bson", v.GetString("tagdata.store.codec"))
			},
		},
		{
			name:    "json file",
			file:    "config.json",
			content: `{"mongo": {"port": 27017}}`,
			check: func(t *testing.T, v *viper.Viper) {
				assert.Equal(t, 27017, v.GetInt("mongo.port"))
			},
		},
		{
			name:    "environment overrides file with dashes mapped",
			file:    "config.yaml",
			content: "tagdata:\n  access:\n    allow-undeclared: false\n",
			env:     map[string]string{"TAGDATA_ACCESS_ALLOW_UNDECLARED": "true"},
			check: func(t *testing.T, v *viper.Viper) {
				assert.True(t, v.GetBool("tagdata.access.allow-undeclared"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			path := writeFile(t, tt.file, tt.content)
			for k, val := range tt.env {
				t.Setenv(k, val)
			}

			// Act
			v, err := NewViper(path)

			// Assert
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestNewViper_NoFile(t *testing.T) {
	t.Setenv("MONGO_HOST", "db")

	v, err := NewViper("")

	require.NoError(t, err)
	assert.Empty(t, v.ConfigFileUsed())
	assert.Equal(t, "db", v.GetString("mongo.host"))
}

func TestNewViper_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing file", path: func(*testing.T) string { return "/nonexistent/config.yaml" }},
		{name: "invalid yaml", path: func(t *testing.T) string { return writeFile(t, "config.yaml", "a: [[[\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewViper(tt.path(t))

			require.Error(t, err)
			assert.Nil(t, v)
			assert.Contains(t, err.Error(), "failed to read config file")
		})
	}
}

func TestLoadAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{envServiceName, envServiceVersion, envEnvironment, envConfigFile} {
			t.Setenv(k, "")
		}

		cfg := LoadAppConfig()

		assert.Equal(t, AppConfig{
			ServiceName:    defaultServiceName,
			ServiceVersion: defaultVersion,
			Environment:    defaultEnvironment,
		}, cfg)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(envServiceName, "inventory")
		t.Setenv(envServiceVersion, "1.2.3")
		t.Setenv(envEnvironment, "pro")
		t.Setenv(envConfigFile, "/etc/tagdata.yaml")

		cfg := LoadAppConfig()

		assert.Equal(t, AppConfig{
			ServiceName:    "inventory",
			ServiceVersion: "1.2.3",
			Environment:    "pro",
			ConfigFile:     "/etc/tagdata.yaml",
		}, cfg)
	})
}

func TestLoadDotEnv(t *testing.T) {
	// Arrange
	path := writeFile(t, ".env", "TAGDATA_DOTENV_PROBE=loaded\n")
	t.Setenv("TAGDATA_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("TAGDATA_DOTENV_PROBE"))

	// Act
	loaded := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))

	// Assert
	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "loaded", os.Getenv("TAGDATA_DOTENV_PROBE"))
}

func TestViperModule_UsesAppConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "logger:\n  level: debug\n")
	var v *viper.Viper

	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		NewAppConfigModule(WithAppConfig(AppConfig{ServiceName: "test", ConfigFile: path})),
		NewViperModule(),
		fx.Populate(&v),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, "debug", v.GetString("logger.level"))
}

func TestViperModule_WithoutConfigFile(t *testing.T) {
	var v *viper.Viper

	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		NewAppConfigModule(WithAppConfig(AppConfig{ConfigFile: "/nonexistent.yaml"})),
		NewViperModule(WithoutConfigFile()),
		fx.Populate(&v),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Empty(t, v.ConfigFileUsed())
}

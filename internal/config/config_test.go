package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Project)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 100000, cfg.NPerCommit)
	assert.True(t, cfg.PrintCommits)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, "casm-engine", cfg.Engine.Command)
	assert.Empty(t, cfg.Engine.Args)
	assert.Equal(t, "", cfg.Engine.Manifest)
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{"project", "CASMPROJ_PROJECT", "/data/ZrO", func(c Config) any { return c.Project }, "/data/ZrO"},
		{"verbose", "CASMPROJ_VERBOSE", "true", func(c Config) any { return c.Verbose }, true},
		{"n_per_commit", "CASMPROJ_N_PER_COMMIT", "250", func(c Config) any { return c.NPerCommit }, 250},
		{"print_commits", "CASMPROJ_PRINT_COMMITS", "false", func(c Config) any { return c.PrintCommits }, false},
		{"telemetry", "CASMPROJ_TELEMETRY", "false", func(c Config) any { return c.Telemetry }, false},
		{"color", "CASMPROJ_COLOR", "never", func(c Config) any { return c.Color }, "never"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)

			v := viper.New()
			v.SetEnvPrefix("CASMPROJ")
			v.AutomaticEnv()

			cfg, err := LoadFrom(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.field(cfg))
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".casmproj.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
n_per_commit: 5
engine:
  command: python3
  args: ["-m", "casm.engine"]
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NPerCommit)
	assert.Equal(t, "python3", cfg.Engine.Command)
	assert.Equal(t, []string{"-m", "casm.engine"}, cfg.Engine.Args)
	assert.True(t, cfg.PrintCommits, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero batch", "n_per_commit", 0},
		{"bad color", "color", "sometimes"},
		{"empty engine", "engine.command", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := LoadFrom(v)
			assert.Error(t, err)
		})
	}
}

func TestLoad_GlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("verbose", true)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

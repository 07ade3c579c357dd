// Package config resolves runtime settings from defaults, .casmproj.yaml,
// CASMPROJ_* environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EngineConfig locates the external engine executable.
type EngineConfig struct {
	Command  string   `mapstructure:"command" validate:"required"`
	Args     []string `mapstructure:"args"`
	Manifest string   `mapstructure:"manifest"`
}

// Config holds all runtime configuration for a casmproj invocation.
type Config struct {
	Project      string       `mapstructure:"project"`
	Verbose      bool         `mapstructure:"verbose"`
	NPerCommit   int          `mapstructure:"n_per_commit" validate:"gte=1"`
	PrintCommits bool         `mapstructure:"print_commits"`
	Telemetry    bool         `mapstructure:"telemetry"`
	Color        string       `mapstructure:"color" validate:"oneof=auto always never"`
	Engine       EngineConfig `mapstructure:"engine"`
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project", "")
	v.SetDefault("verbose", false)
	v.SetDefault("n_per_commit", 100000)
	v.SetDefault("print_commits", true)
	v.SetDefault("telemetry", true)
	v.SetDefault("color", "auto")
	v.SetDefault("engine.command", "casm-engine")
	v.SetDefault("engine.args", []string{})
	v.SetDefault("engine.manifest", "")
}

// Load reads configuration from the global viper instance, applying
// built-in defaults for any values not set by config file, environment, or
// flags.
func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Color = strings.ToLower(strings.TrimSpace(cfg.Color))
	if cfg.Color == "" {
		cfg.Color = "auto"
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

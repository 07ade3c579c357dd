package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config selects the engine executable.
type Config struct {
	Command string
	Args    []string
	Env     map[string]string
	Timeout time.Duration
	Verbose bool
}

// Manifest is the on-disk TOML form of Config.
type Manifest struct {
	Engine ManifestEngine `toml:"engine"`
}

// ManifestEngine is the [engine] table of a manifest.
type ManifestEngine struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Timeout string            `toml:"timeout"`
	Env     map[string]string `toml:"env"`
}

// LoadManifest reads a TOML engine manifest.
func LoadManifest(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading engine manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parsing engine manifest %s: %w", path, err)
	}
	cfg := Config{Command: m.Engine.Command, Args: m.Engine.Args, Env: m.Engine.Env}
	if m.Engine.Timeout != "" {
		d, err := time.ParseDuration(m.Engine.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("engine manifest %s: invalid timeout %q: %w", path, m.Engine.Timeout, err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// Merge returns c with the fields set in override replacing its own.
func (c Config) Merge(override Config) Config {
	if override.Command != "" {
		c.Command = override.Command
	}
	if len(override.Args) > 0 {
		c.Args = override.Args
	}
	if len(override.Env) > 0 {
		c.Env = override.Env
	}
	if override.Timeout > 0 {
		c.Timeout = override.Timeout
	}
	return c
}

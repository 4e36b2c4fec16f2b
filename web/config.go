package web

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the web server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the server defaults. The default port matches the
// conventional local chat UI port.
func DefaultConfig() Config {
	return Config{
		Addr:            ":7860",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

// fileConfig is the YAML form of Config. Durations are strings in Go
// duration syntax ("10s", "2m"). Absent fields keep their defaults.
type fileConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	IdleTimeout     string `yaml:"idle_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.ReadTimeout, &cfg.ReadTimeout},
		{fc.WriteTimeout, &cfg.WriteTimeout},
		{fc.IdleTimeout, &cfg.IdleTimeout},
		{fc.ShutdownTimeout, &cfg.ShutdownTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse config duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// Package config loads the server configuration file.
//
// Configuration precedence: defaults, then the YAML file (if present),
// then command-line flags (applied in cmd/server). A missing file is not
// an error - the defaults run a local development server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the contents of topshelf.yaml.
type Config struct {
	Port   int    `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// CORS origins allowed to call the API (the admin frontend).
	AllowedOrigins []string `yaml:"allowed_origins"`

	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// SchedulerConfig controls the automatic monthly payout calculation.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`

	// Cron is a standard 5-field cron expression. The default runs at
	// 02:00 on the 1st of every month, calculating the month just ended.
	Cron string `yaml:"cron"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Port:   8080,
		DBPath: "topshelf.db",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:8080",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Cron:    "0 2 1 * *",
		},
	}
}

// Load reads the config file at path, layered over the defaults.
// Returns the defaults when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config %s: port %d out of range", path, cfg.Port)
	}
	if cfg.Scheduler.Enabled && cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Cron = Default().Scheduler.Cron
	}

	return cfg, nil
}

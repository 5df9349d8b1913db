// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration.
type Config struct {
	Addr     string        `env:"DARILA_ADDR" envDefault:":8080"`
	DBPath   string        `env:"DARILA_DB" envDefault:"darila.sqlite3"`
	LogPath  string        `env:"DARILA_LOG" envDefault:""`
	GrantTTL time.Duration `env:"DARILA_GRANT_TTL" envDefault:"24h"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the API process reads from the environment.
// CAUSEBOOK_AUTH_SECRET is read lazily by the auth package and is not
// mirrored here.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"CAUSEBOOK_ADDR" envDefault:":8080"`

	// PGDSN selects the Postgres store. Empty means the in-memory store,
	// which is enough for local development and tests.
	PGDSN string `env:"CAUSEBOOK_PG_DSN"`

	// Superuser bootstrap. All three must be set for the bootstrap to run.
	SuperUser     string `env:"CAUSEBOOK_SUPER_USER"`
	SuperEmail    string `env:"CAUSEBOOK_SUPER_EMAIL"`
	SuperPassword string `env:"CAUSEBOOK_SUPER_PASSWORD"`

	// RateLimit is requests per second per client; RateBurst the burst size.
	RateLimit float64 `env:"CAUSEBOOK_RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"CAUSEBOOK_RATE_BURST" envDefault:"40"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("rate limit must be positive, got %v", cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		return Config{}, fmt.Errorf("rate burst must be positive, got %d", cfg.RateBurst)
	}
	return cfg, nil
}

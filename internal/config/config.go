// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/MJE43/deathroll-go/internal/engine"
	"github.com/MJE43/deathroll-go/internal/games"
)

// Config holds settings shared by the binaries.
type Config struct {
	Addr           string        `env:"DEATHROLL_ADDR" envDefault:"127.0.0.1:8077"`
	LogLevel       string        `env:"DEATHROLL_LOG_LEVEL" envDefault:"info"`
	LogDev         bool          `env:"DEATHROLL_LOG_DEV" envDefault:"false"`
	DefaultWager   int           `env:"DEATHROLL_DEFAULT_WAGER" envDefault:"5"`
	ServerSeed     string        `env:"DEATHROLL_SERVER_SEED"`
	ClientSeed     string        `env:"DEATHROLL_CLIENT_SEED"`
	RequestTimeout time.Duration `env:"DEATHROLL_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Seeds returns the configured seed pair.
func (c Config) Seeds() engine.Seeds {
	return engine.Seeds{Server: c.ServerSeed, Client: c.ClientSeed}
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file from the working directory and then the
// environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.DefaultWager = games.ClampWager(cfg.DefaultWager, games.MinPlayableWager)
	return cfg, nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

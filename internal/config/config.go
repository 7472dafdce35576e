// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"star-notary/internal/domain"
)

// Config is the server configuration.
type Config struct {
	HTTPAddr    string `env:"NOTARY_HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"NOTARY_METRICS_ADDR"` // empty serves /metrics on HTTPAddr

	PostgresDSN   string `env:"NOTARY_POSTGRES_DSN"`
	ClickhouseDSN string `env:"NOTARY_CLICKHOUSE_DSN"` // optional sale analytics
	UseMemory     bool   `env:"NOTARY_USE_MEMORY"`
	Migrate       bool   `env:"NOTARY_MIGRATE" envDefault:"true"`

	TokenName   string `env:"NOTARY_TOKEN_NAME" envDefault:"Star Notary"`
	TokenSymbol string `env:"NOTARY_TOKEN_SYMBOL" envDefault:"SNOT"`

	// Deployer and Minters receive the minter role at startup.
	Deployer domain.Address   `env:"NOTARY_DEPLOYER"`
	Minters  []domain.Address `env:"NOTARY_MINTERS" envSeparator:","`

	// Faucet is the only caller allowed to deposit funds. Zero disables deposits.
	Faucet domain.Address `env:"NOTARY_FAUCET"`
}

// Load reads the optional .env file in the working directory, then the environment.
func Load() (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	return Parse()
}

// Parse reads configuration from environment variables.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the storage selection is usable.
func (c *Config) Validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return errors.New("NOTARY_POSTGRES_DSN is required unless NOTARY_USE_MEMORY is set")
	}
	if c.HTTPAddr == "" {
		return errors.New("NOTARY_HTTP_ADDR must not be empty")
	}
	return nil
}

// InitialMinters returns the deployer followed by the configured minters,
// without zero addresses or repeats.
func (c *Config) InitialMinters() []domain.Address {
	seen := make(map[domain.Address]struct{})
	var out []domain.Address
	for _, a := range append([]domain.Address{c.Deployer}, c.Minters...) {
		if a.IsZero() {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// LoadEnvFile sets variables from a KEY=VALUE file. Variables already set in
// the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // use system env vars
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Don't override existing env vars
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return nil
}

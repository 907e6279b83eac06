// Package config loads runtime configuration for the gophauth command-line
// client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by the --config flag.
//  3. GOPHAUTH_SERVER_URL and GOPHAUTH_TIMEOUT environment variables.
//  4. The --server and --timeout flags, applied by the cli package.
//
// # JSON schema
//
// Timeouts use timex.Duration, so values can be strings like "5s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "5s"
//	}
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the client.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with defaults matching a locally running server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig applies defaults, then the JSON file at path (skipped when path
// is empty), then the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseEnv(cfg *Config) error {
	if v := os.Getenv("GOPHAUTH_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("GOPHAUTH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOPHAUTH_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

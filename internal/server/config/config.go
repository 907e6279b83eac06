// Package config handles configuration for the server component:
// defaults, a JSON file, a dotenv file plus the process environment, and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the HTTP API.
//   - DatabaseURI: postgres:// (pgx) or sqlite:// (modernc) URI.
//   - TokenSecret / TokenTTL: HS256 signing secret and token lifetime.
//   - PasswordHasher / BcryptCost: hashing algorithm for new passwords.
//   - CORSAllowedOrigins: origins allowed to call the API from a browser.
//   - LoginMaxAttempts / LoginWindow / LoginLockDuration: per-IP login
//     throttling; zero attempts disables it.
//   - RedisURL: shared throttle state; in-memory when empty.
type Config struct {
	EndpointAddrHTTP   string
	DatabaseURI        string
	TokenSecret        string
	TokenTTL           time.Duration
	PasswordHasher     string
	BcryptCost         int
	CORSAllowedOrigins []string
	GinMode            string
	LoginMaxAttempts   int
	LoginWindow        time.Duration
	LoginLockDuration  time.Duration
	RedisURL           string
}

// LoadDefaults populates Config with development defaults. TokenSecret is
// left empty on purpose and must be configured.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseURI = "sqlite://gophauth.db"
	c.TokenTTL = time.Hour
	c.PasswordHasher = "argon2id"
	c.BcryptCost = 12
	c.GinMode = gin.ReleaseMode
	c.LoginMaxAttempts = 5
	c.LoginWindow = 15 * time.Minute
	c.LoginLockDuration = 10 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.EndpointAddrHTTP == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("DATABASE_URI is required"))
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("TOKEN_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}

	switch c.PasswordHasher {
	case "argon2id":
	case "bcrypt":
		if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
			errs = append(errs, fmt.Errorf("BCRYPT_COST must be in [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
		}
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be argon2id or bcrypt, got %q", c.PasswordHasher))
	}

	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode))
	}

	if c.LoginMaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("LOGIN_MAX_ATTEMPTS must not be negative, got %d", c.LoginMaxAttempts))
	}
	if c.LoginMaxAttempts > 0 && (c.LoginWindow <= 0 || c.LoginLockDuration <= 0) {
		errs = append(errs, errors.New("LOGIN_WINDOW and LOGIN_LOCK_DURATION must be positive when throttling is enabled"))
	}

	return errors.Join(errs...)
}

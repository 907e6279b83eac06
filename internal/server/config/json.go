package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// Only fields present in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP   *string         `json:"endpoint_addr_http"`
	DatabaseURI        *string         `json:"database_uri"`
	TokenSecret        *string         `json:"token_secret"`
	TokenTTL           *timex.Duration `json:"token_ttl"`
	PasswordHasher     *string         `json:"password_hasher"`
	BcryptCost         *int            `json:"bcrypt_cost"`
	CORSAllowedOrigins []string        `json:"cors_allowed_origins"`
	GinMode            *string         `json:"gin_mode"`
	LoginMaxAttempts   *int            `json:"login_max_attempts"`
	LoginWindow        *timex.Duration `json:"login_window"`
	LoginLockDuration  *timex.Duration `json:"login_lock_duration"`
	RedisURL           *string         `json:"redis_url"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without the flag nothing is loaded.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseURI, c.DatabaseURI)
	setIf(&config.TokenSecret, c.TokenSecret)
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	setIf(&config.PasswordHasher, c.PasswordHasher)
	setIf(&config.BcryptCost, c.BcryptCost)
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setIf(&config.GinMode, c.GinMode)
	setIf(&config.LoginMaxAttempts, c.LoginMaxAttempts)
	if c.LoginWindow != nil {
		config.LoginWindow = c.LoginWindow.Duration
	}
	if c.LoginLockDuration != nil {
		config.LoginLockDuration = c.LoginLockDuration.Duration
	}
	setIf(&config.RedisURL, c.RedisURL)

	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

const defaultEnvFile = ".env"

// parseEnv loads the dotenv file named by -env-file (default ".env") into the
// process environment, then reads the settings from the environment.
// Variables already set in the process win over the file. A missing default
// file is ignored; a missing explicit one is an error.
func parseEnv(config *Config) error {
	path := flagx.EnvFileFlag()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("DATABASE_URI", &config.DatabaseURI)
	str("TOKEN_SECRET", &config.TokenSecret)
	dur("TOKEN_TTL", &config.TokenTTL)
	str("PASSWORD_HASHER", &config.PasswordHasher)
	num("BCRYPT_COST", &config.BcryptCost)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}
	str("GIN_MODE", &config.GinMode)
	num("LOGIN_MAX_ATTEMPTS", &config.LoginMaxAttempts)
	dur("LOGIN_WINDOW", &config.LoginWindow)
	dur("LOGIN_LOCK_DURATION", &config.LoginLockDuration)
	str("REDIS_URL", &config.RedisURL)

	return errors.Join(errs...)
}

// splitList splits a comma-separated list and drops blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

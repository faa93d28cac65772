package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before reading the environment. Variables already set in
// the process environment win over the file.
var envFile = ".env"

// parseEnv overlays HTTP_ADDR, DATABASE_URL, JWT_SECRET, TOKEN_TTL,
// REDIS_URL, ENV, ALLOWED_ORIGINS, REQUEST_TIMEOUT, LOGIN_RATE_LIMIT,
// LOGIN_RATE_WINDOW and TRUST_PROXY_HEADERS.
func parseEnv(config *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	setString(&config.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&config.DatabaseDSN, os.Getenv("DATABASE_URL"))
	setString(&config.SecretKey, os.Getenv("JWT_SECRET"))
	setString(&config.RedisURL, os.Getenv("REDIS_URL"))
	setString(&config.Environment, os.Getenv("ENV"))
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		config.AllowedOrigins = splitList(v)
	}

	var errs []error
	errs = append(errs, envDuration("TOKEN_TTL", &config.TokenTTL))
	errs = append(errs, envDuration("REQUEST_TIMEOUT", &config.RequestTimeout))
	errs = append(errs, envDuration("LOGIN_RATE_WINDOW", &config.LoginRateWindow))
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err))
		} else {
			config.LoginRateLimit = n
		}
	}
	if v := os.Getenv("TRUST_PROXY_HEADERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRUST_PROXY_HEADERS: %w", err))
		} else {
			config.TrustProxyHeaders = b
		}
	}
	return errors.Join(errs...)
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/policyportal/internal/flagx"
	"github.com/dmitrijs2005/policyportal/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either a string such as "168h" or integer nanoseconds. Absent fields
// leave the current value alone.
type JsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	DatabaseDSN     string          `json:"database_dsn"`
	SecretKey       string          `json:"secret_key"`
	TokenTTL        *timex.Duration `json:"token_ttl"`
	RedisURL        string          `json:"redis_url"`
	Environment     string          `json:"environment"`
	AllowedOrigins  []string        `json:"allowed_origins"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	LoginRateLimit  *int            `json:"login_rate_limit"`
	LoginRateWindow *timex.Duration `json:"login_rate_window"`

	TrustProxyHeaders *bool `json:"trust_proxy_headers"`
}

// parseJson overlays values from the file named by -c/-config. Without the
// flag nothing is loaded.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.Environment, c.Environment)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
	if c.LoginRateWindow != nil {
		config.LoginRateWindow = c.LoginRateWindow.Duration
	}
	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

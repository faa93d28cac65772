package config

import (
	"fmt"
	"os"
	"time"
)

func parseEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("POLICYPORTAL_URL"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv("POLICYPORTAL_TOKEN_FILE"); ok && v != "" {
		cfg.TokenFile = v
	}
	if v, ok := os.LookupEnv("POLICYPORTAL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLICYPORTAL_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

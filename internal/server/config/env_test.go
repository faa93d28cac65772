package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useEnvFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	envFile = path
	t.Cleanup(func() { envFile = ".env" })
}

func Test_parseEnv(t *testing.T) {
	useEnvFile(t, "")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("LOGIN_RATE_LIMIT", "5")
	t.Setenv("LOGIN_RATE_WINDOW", "2m")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, &Config{
		HTTPAddr:        ":9999",
		DatabaseDSN:     "postgres://db",
		SecretKey:       "env-secret",
		TokenTTL:        time.Hour,
		RedisURL:        "redis://localhost:6379/0",
		Environment:     "production",
		AllowedOrigins:  []string{"https://a.example", "https://b.example"},
		RequestTimeout:  3 * time.Second,
		LoginRateLimit:  5,
		LoginRateWindow: 2 * time.Minute,

		TrustProxyHeaders: true,
	}, cfg)
}

func Test_parseEnv_DotEnvFile(t *testing.T) {
	useEnvFile(t, "JWT_SECRET=from-dotenv\nHTTP_ADDR=:4444\n")
	t.Setenv("HTTP_ADDR", ":5555")
	// godotenv sets variables that are absent; make sure JWT_SECRET is unset
	// and restored afterwards.
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "from-dotenv", cfg.SecretKey)
	assert.Equal(t, ":5555", cfg.HTTPAddr)
}

func Test_parseEnv_BadValues(t *testing.T) {
	useEnvFile(t, "")
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("LOGIN_RATE_LIMIT", "many")
	t.Setenv("TRUST_PROXY_HEADERS", "maybe")

	cfg := &Config{}
	cfg.LoadDefaults()
	err := parseEnv(cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "TOKEN_TTL")
	assert.ErrorContains(t, err, "LOGIN_RATE_LIMIT")
	assert.ErrorContains(t, err, "TRUST_PROXY_HEADERS")
}

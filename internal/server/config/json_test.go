package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":         "www.example:9000",
		"database_dsn":      "memory://",
		"secret_key":        "my_secret_key",
		"token_ttl":         "24h",
		"redis_url":         "redis://cache:6379/1",
		"environment":       "staging",
		"allowed_origins":   []string{"https://portal.example"},
		"request_timeout":   "5s",
		"login_rate_limit":  3,
		"login_rate_window": int64(time.Minute),

		"trust_proxy_headers": true,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, &Config{
			HTTPAddr:        "www.example:9000",
			DatabaseDSN:     "memory://",
			SecretKey:       "my_secret_key",
			TokenTTL:        24 * time.Hour,
			RedisURL:        "redis://cache:6379/1",
			Environment:     "staging",
			AllowedOrigins:  []string{"https://portal.example"},
			RequestTimeout:  5 * time.Second,
			LoginRateLimit:  3,
			LoginRateWindow: time.Minute,

			TrustProxyHeaders: true,
		}, cfg)
	})

	t.Run("no config flag leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		want := *cfg
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, want, *cfg)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"http_addr": ":1"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, ":1", cfg.HTTPAddr)
		assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
		assert.Equal(t, DevSecretKey, cfg.SecretKey)
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		assert.Error(t, parseJson(&Config{}))
	})

	t.Run("bad json", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", bad}
		assert.Error(t, parseJson(&Config{}))
	})
}

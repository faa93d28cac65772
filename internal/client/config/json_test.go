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

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("no flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"cli"}
		c := &Config{ServerURL: "http://keep"}
		require.NoError(t, parseJson(c))
		assert.Equal(t, "http://keep", c.ServerURL)
	})

	t.Run("partial file overlays present fields", func(t *testing.T) {
		os.Args = []string{"cli", "-config", writeTempJSON(t, map[string]any{"request_timeout": int64(time.Second)})}
		c := &Config{ServerURL: "http://keep"}
		require.NoError(t, parseJson(c))
		assert.Equal(t, &Config{ServerURL: "http://keep", RequestTimeout: time.Second}, c)
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"cli", "-c", filepath.Join(t.TempDir(), "nope.json")}
		require.ErrorContains(t, parseJson(&Config{}), "read config file")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		os.Args = []string{"cli", "-c", path}
		require.ErrorContains(t, parseJson(&Config{}), "parse config file")
	})
}

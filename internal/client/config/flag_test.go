package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{name: "all flags", args: []string{"cli", "-a", "http://h:1", "-f", "/tmp/t", "-w", "1s"},
			expected: &Config{ServerURL: "http://h:1", TokenFile: "/tmp/t", RequestTimeout: time.Second}},
		{name: "command word ignored", args: []string{"cli", "login", "-a", "http://h:2"},
			expected: &Config{ServerURL: "http://h:2"}},
		{name: "bad duration", args: []string{"cli", "-w", "soon"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			c := &Config{}

			err := parseFlags(c)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, c))
		})
	}
}

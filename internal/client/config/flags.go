package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/policyportal/internal/flagx"
)

// ValueFlags lists the flags that take a value, so callers can tell the
// command word apart from flag values.
var ValueFlags = []string{"-a", "-f", "-w", "-c", "-config"}

// parseFlags overlays Config fields from -a, -f and -w. Other arguments,
// including the subcommand, are filtered out first.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-w"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the portal API")
	fs.StringVar(&cfg.TokenFile, "f", cfg.TokenFile, "session token file")
	fs.DurationVar(&cfg.RequestTimeout, "w", cfg.RequestTimeout, "request timeout")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

// Package config loads runtime configuration for the policy portal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment: POLICYPORTAL_URL, POLICYPORTAL_TOKEN_FILE, POLICYPORTAL_TIMEOUT.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the portal API
//	-f string     path of the session token file
//	-w duration   per-request timeout
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:8080",
//	  "token_file": "/home/me/.policyportal/token",
//	  "request_timeout": "10s"
//	}
package config

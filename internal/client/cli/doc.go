// Package cli implements the policy portal command-line client: one-shot
// commands (cli login, cli me, ...) and an interactive REPL over the same
// command set. The session token is kept in a token store between runs.
package cli

// Package tokenstore persists the CLI session token between invocations.
package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/policyportal/internal/filex"
)

const (
	dirName  = ".policyportal"
	fileName = "token"
)

// Store keeps a single bearer token in a file readable only by its owner.
type Store struct {
	path string
}

// New returns a Store backed by path, or by DefaultPath when path is empty.
func New(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// DefaultPath is ~/.policyportal/token.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the saved token, or "" if none is saved.
func (s *Store) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Save replaces the saved token, creating the parent directory if needed.
func (s *Store) Save(token string) error {
	dir := filepath.Dir(s.path)
	if _, err := filex.EnsureSubdDir(filepath.Dir(dir), filepath.Base(dir)); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear removes the saved token. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

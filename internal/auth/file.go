package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSession: файла сессии нет или он пуст.
var ErrNoSession = errors.New("not logged in")

// TokenFile stores the session token at Path with mode 0600.
type TokenFile struct {
	Path string
}

// Save writes token, creating the parent directory.
func (f TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

// Load reads the token, trimming trailing whitespace.
func (f TokenFile) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSession
		}
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", ErrNoSession
	}
	return tok, nil
}

// Clear removes the token file; a missing file is not an error.
func (f TokenFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IdentityStore keeps the conversation identity in a file. The identity is
// created on first use and never expires.
type IdentityStore struct {
	path string
}

// NewIdentityStore returns a store backed by path.
func NewIdentityStore(path string) *IdentityStore {
	return &IdentityStore{path: path}
}

// Load returns the stored identity, creating one when the file is missing
// or blank.
func (s *IdentityStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read identity: %w", err)
	}
	if id := strings.TrimSpace(string(data)); id != "" {
		return id, nil
	}
	return s.Reset()
}

// Reset replaces the stored identity with a new one.
func (s *IdentityStore) Reset() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}

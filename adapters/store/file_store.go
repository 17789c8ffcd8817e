package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shelby2770/testsso/ports"
)

// FileStore persists the SSO token as a single file, the process-local
// equivalent of the browser's well-known storage key.
type FileStore struct {
	path string
}

// NewFileStore creates a token store at path. The parent directory is
// created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFileStore places the token under the user config directory.
func DefaultFileStore() (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return NewFileStore(filepath.Join(dir, "testsso", "sso_token")), nil
}

var _ ports.TokenStore = (*FileStore)(nil)

// Save writes the token, replacing any previous one.
func (s *FileStore) Save(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load retrieves the persisted token.
func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ports.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if len(data) == 0 {
		return "", ports.ErrNoToken
	}
	return string(data), nil
}

// Clear removes the persisted token; clearing an absent token is a no-op.
func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

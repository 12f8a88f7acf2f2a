package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// FSStore serves and stores objects as files under a root directory. Keys are
// confined to the root, so a key like "../x" cannot escape it.
type FSStore struct {
	root string
}

// NewFSStore roots a store at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure store dir %s: %w", dir, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve store dir %s: %w", dir, err)
	}

	return &FSStore{root: abs}, nil
}

// keyPath maps a key to a path inside the root.
func (s *FSStore) keyPath(key string) (string, error) {
	p, err := securejoin.SecureJoin(s.root, key)
	if err != nil {
		return "", fmt.Errorf("resolve key %q: %w", key, err)
	}

	return p, nil
}

// Fetch reads the file behind key. A missing file maps to ErrNotFound.
func (s *FSStore) Fetch(_ context.Context, key string) ([]byte, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p) //nolint:gosec // path confined by SecureJoin
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// Store writes data to the file behind key, creating parent directories. The
// content type is ignored; the returned location is the absolute file path.
func (s *FSStore) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("ensure dir for %s: %w", key, err)
	}

	if err := os.WriteFile(p, data, 0o644); err != nil { //nolint:gosec // generated documents are not sensitive
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	return p, nil
}

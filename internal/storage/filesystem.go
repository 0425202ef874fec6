package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps generated session assets on the local filesystem, laid out
// under one root directory (sessions/<id>/generated-<rev>.png). Asset writes
// are best-effort extras of a successful generation; the session itself never
// depends on them.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns the store.
func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// BasePath returns the store's root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Write stores data under the given slash-separated key and returns the
// normalized key. The file lands via a temp file and rename so a crashed
// write never leaves a truncated asset behind.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: store not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := normalizeKey(key)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".asset-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: close asset: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: finalize asset: %w", err)
	}
	return clean, nil
}

// normalizeKey rejects keys that would escape the root.
func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimLeft(strings.TrimPrefix(key, "./"), "/")
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return clean, nil
}

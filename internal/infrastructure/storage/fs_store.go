package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	backupapp "github.com/markethub/backend/internal/application/backup"
)

// FSObjectStore keeps uploaded artifacts in a local directory. Use this
// for development until a real S3-compatible backend is configured.
type FSObjectStore struct {
	root string
}

// NewFSObjectStore creates a filesystem-backed object store rooted at dir
func NewFSObjectStore(dir string) (*FSObjectStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FSObjectStore{root: dir}, nil
}

// Ensure FSObjectStore implements ObjectStore
var _ backupapp.ObjectStore = (*FSObjectStore)(nil)

// Upload copies a local file into the store under the given key
func (s *FSObjectStore) Upload(_ context.Context, key, localPath string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create object %s: %w", key, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	return nil
}

// DeleteObject removes an object from the store
func (s *FSObjectStore) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ObjectExists checks if an object exists in the store
func (s *FSObjectStore) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("object key is required")
	}
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

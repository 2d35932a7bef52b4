// Package blob stores uploaded document bytes on the local filesystem,
// keyed by storage path. Ingestion reads documents back through this store.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/helixml/dokit/domain/service"
)

// ErrInvalidPath indicates a storage path that escapes the store root.
var ErrInvalidPath = errors.New("invalid storage path")

// ErrBlobNotFound indicates no blob exists at the storage path.
var ErrBlobNotFound = errors.New("blob not found")

// FilesystemStore persists blobs as files under a root directory.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a FilesystemStore rooted at dir, creating the
// directory if it does not exist.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if dir == "" {
		return nil, errors.New("blob store root must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob store root: %w", err)
	}
	return &FilesystemStore{root: dir}, nil
}

// Root returns the store's root directory.
func (s *FilesystemStore) Root() string { return s.root }

// resolve maps a storage path to a filesystem path under the root.
// Absolute paths and paths escaping the root are rejected.
func (s *FilesystemStore) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return filepath.Join(s.root, clean), nil
}

// Put stores blob data under the given storage path.
func (s *FilesystemStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", path, err)
	}
	return nil
}

// Get retrieves the blob stored at the given storage path.
func (s *FilesystemStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, path)
		}
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the blob at the given storage path. Deleting a missing
// blob is not an error.
func (s *FilesystemStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", path, err)
	}
	return nil
}

// Exists checks whether a blob exists at the given storage path.
func (s *FilesystemStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob %s: %w", path, err)
	}
	return true, nil
}

// Ensure FilesystemStore implements the domain interface.
var _ service.BlobStore = (*FilesystemStore)(nil)

package service

import "context"

// BlobStore persists uploaded document bytes keyed by storage path.
type BlobStore interface {
	// Put stores blob data under the given storage path.
	Put(ctx context.Context, path string, data []byte) error

	// Get retrieves the blob stored at the given storage path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes the blob at the given storage path.
	// Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks whether a blob exists at the given storage path.
	Exists(ctx context.Context, path string) (bool, error)
}

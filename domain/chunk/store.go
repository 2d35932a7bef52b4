package chunk

import (
	"context"

	"github.com/helixml/dokit/domain/repository"
)

// Store defines persistence for document chunks.
type Store interface {
	repository.Store[Chunk]

	// Save persists a chunk, creating it when it has no ID yet.
	Save(ctx context.Context, c Chunk) (Chunk, error)

	// SaveAll persists a batch of chunks in a single transaction.
	SaveAll(ctx context.Context, chunks []Chunk) ([]Chunk, error)

	// DeleteByDocument removes all chunks belonging to a document.
	DeleteByDocument(ctx context.Context, documentID int64) error
}

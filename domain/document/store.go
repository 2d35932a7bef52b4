package document

import (
	"context"

	"github.com/helixml/dokit/domain/repository"
)

// Store defines persistence operations for documents.
type Store interface {
	repository.Store[Document]

	// Save creates a new document or updates an existing one.
	Save(ctx context.Context, doc Document) (Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, doc Document) error
}

package search

import (
	"context"

	"github.com/helixml/dokit/domain/repository"
)

// Searcher scores stored chunk embeddings against a query.
type Searcher interface {
	// Search performs combined similarity search using options.
	// The query embedding must be passed via WithEmbedding and the raw
	// query text via WithQuery; condition options narrow the candidate
	// set. Results are sorted by score descending.
	Search(ctx context.Context, options ...repository.Option) ([]Result, error)
}

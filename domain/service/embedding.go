package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/domain/search"
)

// ErrEmptyQuery indicates an empty search query.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// Embedding provides domain logic for embedding operations.
type Embedding interface {
	// Index embeds chunks and persists them using domain business rules.
	// Returns the chunks that were successfully saved.
	Index(ctx context.Context, chunks []chunk.Chunk, opts ...search.IndexOption) ([]chunk.Chunk, error)

	// Find embeds the query text and performs combined similarity search.
	Find(ctx context.Context, query string, options ...repository.Option) ([]search.Result, error)
}

// EmbeddingService implements domain logic for embedding operations.
type EmbeddingService struct {
	chunks   chunk.Store
	searcher search.Searcher
	embedder search.Embedder
	budget   search.TokenBudget
}

// NewEmbedding creates a new embedding service.
// The budget controls text truncation and batch sizing.
func NewEmbedding(chunks chunk.Store, searcher search.Searcher, embedder search.Embedder, budget search.TokenBudget) (*EmbeddingService, error) {
	if chunks == nil {
		return nil, fmt.Errorf("NewEmbedding: nil chunk store")
	}
	if searcher == nil {
		return nil, fmt.Errorf("NewEmbedding: nil searcher")
	}
	return &EmbeddingService{
		chunks:   chunks,
		searcher: searcher,
		embedder: embedder,
		budget:   budget,
	}, nil
}

// Index embeds chunks and persists them in batches: validate → batch →
// embed → save. A failed batch is reported and skipped; remaining batches
// continue, so a partial failure still saves what it can. The returned
// slice holds the chunks that were saved, with IDs assigned.
func (s *EmbeddingService) Index(ctx context.Context, chunks []chunk.Chunk, opts ...search.IndexOption) ([]chunk.Chunk, error) {
	cfg := search.NewIndexConfig(opts...)

	// Skip if empty
	if len(chunks) == 0 {
		return nil, nil
	}

	// Filter out chunks with no embeddable content
	valid := make([]chunk.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content()) != "" {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return nil, nil
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("Index: nil embedder")
	}

	batches := s.budget.Batches(valid)
	total := len(valid)
	completed := 0
	offset := 0
	var saved []chunk.Chunk
	var batchErrors []error

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		start := offset
		end := offset + len(batch)

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = s.budget.Truncate(c.Content())
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			batchErr := fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
			batchErrors = append(batchErrors, batchErr)
			if cfg.BatchError() != nil {
				cfg.BatchError()(start, end, err)
			}
			offset = end
			continue
		}

		if len(vectors) != len(batch) {
			batchErr := fmt.Errorf("embed batch [%d:%d]: count mismatch: got %d, expected %d", start, end, len(vectors), len(batch))
			batchErrors = append(batchErrors, batchErr)
			if cfg.BatchError() != nil {
				cfg.BatchError()(start, end, fmt.Errorf("count mismatch: got %d, expected %d", len(vectors), len(batch)))
			}
			offset = end
			continue
		}

		embedded := make([]chunk.Chunk, len(batch))
		for j, c := range batch {
			embedded[j] = c.WithEmbedding(vectors[j])
		}

		inserted, err := s.chunks.SaveAll(ctx, embedded)
		if err != nil {
			batchErr := fmt.Errorf("save batch [%d:%d]: %w", start, end, err)
			batchErrors = append(batchErrors, batchErr)
			if cfg.BatchError() != nil {
				cfg.BatchError()(start, end, err)
			}
			offset = end
			continue
		}

		saved = append(saved, inserted...)
		completed += len(batch)
		if cfg.Progress() != nil {
			cfg.Progress()(completed, total)
		}
		offset = end
	}

	if len(batchErrors) > 0 {
		return saved, fmt.Errorf("%d of %d embedding batches failed: %w", len(batchErrors), len(batches), errors.Join(batchErrors...))
	}

	return saved, nil
}

// Find embeds the query text and performs combined similarity search.
// Both the query embedding and the raw query text are passed through so
// searchers can mix cosine similarity with keyword scoring.
func (s *EmbeddingService) Find(ctx context.Context, query string, options ...repository.Option) ([]search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("Find: nil embedder")
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return []search.Result{}, nil
	}

	combined := make([]repository.Option, 0, len(options)+2)
	combined = append(combined, search.WithEmbedding(embeddings[0]))
	combined = append(combined, search.WithQuery(query))
	combined = append(combined, options...)

	return s.searcher.Search(ctx, combined...)
}

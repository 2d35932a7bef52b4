// Package search scores stored document chunks against query embeddings.
// Scoring happens in process: candidates are loaded from the chunk store
// and ranked by a combination of cosine similarity and keyword overlap.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/domain/search"
	"github.com/helixml/dokit/infrastructure/provider"
)

// ChunkFinder is the slice of the chunk store the searcher needs.
type ChunkFinder interface {
	Find(ctx context.Context, options ...repository.Option) ([]chunk.Chunk, error)
}

// ChunkSearcher ranks stored chunks against a query by scoring every
// candidate: cosine similarity between the query and chunk embeddings,
// mixed with a keyword term-frequency score over the chunk text.
type ChunkSearcher struct {
	chunks ChunkFinder
	logger *slog.Logger
}

// NewChunkSearcher creates a ChunkSearcher over the given chunk source.
func NewChunkSearcher(chunks ChunkFinder, logger *slog.Logger) *ChunkSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkSearcher{
		chunks: chunks,
		logger: logger,
	}
}

// Search scores candidate chunks against the query embedding and query text
// passed via options. Condition options narrow the candidate set; the limit
// applies to the ranked list, not the candidate load.
func (s *ChunkSearcher) Search(ctx context.Context, options ...repository.Option) ([]search.Result, error) {
	q := repository.Build(options...)

	queryEmbedding, ok := search.EmbeddingFrom(q)
	if !ok || len(queryEmbedding) == 0 {
		return []search.Result{}, nil
	}

	var terms []string
	if queryText, ok := search.QueryFrom(q); ok {
		terms = provider.Tokenize(queryText)
	}

	limit := q.LimitValue()
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.chunks.Find(ctx, conditionOptions(q)...)
	if err != nil {
		return nil, fmt.Errorf("load candidate chunks: %w", err)
	}

	if len(candidates) == 0 {
		return []search.Result{}, nil
	}

	results := make([]search.Result, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasEmbedding() {
			s.logger.Warn("skipping chunk without embedding", "chunk_id", c.ID())
			continue
		}
		cos := CosineSimilarity(queryEmbedding, c.Embedding())
		kw := KeywordScore(c.Content(), terms)
		results = append(results, search.NewResult(c.ID(), CombinedScore(cos, kw)))
	}

	// Sort by score descending; chunk ID breaks ties for determinism.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].ChunkID() < results[j].ChunkID()
	})

	if limit < len(results) {
		results = results[:limit]
	}

	return results, nil
}

// conditionOptions re-emits only the candidate-narrowing parts of a built
// query. Limit and order must not reach the store: every candidate gets
// scored, and the limit applies to the ranked list.
func conditionOptions(q repository.Query) []repository.Option {
	var opts []repository.Option
	for _, cond := range q.Conditions() {
		if cond.In() {
			opts = append(opts, repository.WithConditionIn(cond.Field(), cond.Value()))
		} else {
			opts = append(opts, repository.WithCondition(cond.Field(), cond.Value()))
		}
	}
	for _, w := range q.Wheres() {
		opts = append(opts, repository.WithWhere(w.Clause(), w.Args()...))
	}
	return opts
}

// Ensure ChunkSearcher implements the domain interface.
var _ search.Searcher = (*ChunkSearcher)(nil)

// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/internal/config"
)

// EmptyCorpusMessage is returned when a search matches no indexed documents.
const EmptyCorpusMessage = "No documents indexed"

// SearchRequest describes one retrieval query.
type SearchRequest struct {
	// Query is the free-text query. Required.
	Query string

	// ScopeID restricts the candidate set to documents owned by this
	// session plus globally visible documents. Empty means no scoping.
	ScopeID string

	// Limit caps the number of results. Zero means the configured default.
	Limit int
}

// SearchResult is one ranked retrieval hit.
type SearchResult struct {
	documentID   int64
	documentName string
	page         int
	snippet      string
	score        float64
}

// NewSearchResult creates a new SearchResult.
func NewSearchResult(documentID int64, documentName string, page int, snippet string, score float64) SearchResult {
	return SearchResult{
		documentID:   documentID,
		documentName: documentName,
		page:         page,
		snippet:      snippet,
		score:        score,
	}
}

// DocumentID returns the source document's ID.
func (r SearchResult) DocumentID() int64 { return r.documentID }

// DocumentName returns the source document's filename.
func (r SearchResult) DocumentName() string { return r.documentName }

// Page returns the estimated page number of the matched chunk.
func (r SearchResult) Page() int { return r.page }

// Snippet returns the leading excerpt of the matched chunk.
func (r SearchResult) Snippet() string { return r.snippet }

// Score returns the combined relevance score, rounded to four decimals.
func (r SearchResult) Score() float64 { return r.score }

// SearchResponse holds the ranked results for one query.
type SearchResponse struct {
	results     []SearchResult
	query       string
	totalChunks int
	message     string
}

// NewSearchResponse creates a new SearchResponse.
func NewSearchResponse(results []SearchResult, query string, totalChunks int, message string) SearchResponse {
	out := make([]SearchResult, len(results))
	copy(out, results)

	return SearchResponse{
		results:     out,
		query:       query,
		totalChunks: totalChunks,
		message:     message,
	}
}

// Results returns the ranked results.
func (r SearchResponse) Results() []SearchResult {
	out := make([]SearchResult, len(r.results))
	copy(out, r.results)
	return out
}

// Query returns the query the results answer.
func (r SearchResponse) Query() string { return r.query }

// TotalChunks returns how many candidate chunks were considered.
func (r SearchResponse) TotalChunks() int { return r.totalChunks }

// Message carries an explanation when the result set is empty for a
// non-error reason, such as an empty corpus.
func (r SearchResponse) Message() string { return r.message }

// Count returns the number of results.
func (r SearchResponse) Count() int { return len(r.results) }

// Search answers retrieval queries: it resolves the candidate document set
// for the requested scope, delegates embedding and ranking to the domain
// embedding service, and assembles document-level results with snippets.
type Search struct {
	documents document.Store
	chunks    chunk.Store
	embedding domainservice.Embedding
	retrieval config.RetrievalConfig
	closed    *atomic.Bool
	logger    *slog.Logger
}

// NewSearch creates a new Search service.
func NewSearch(
	documents document.Store,
	chunks chunk.Store,
	embedding domainservice.Embedding,
	retrieval config.RetrievalConfig,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{
		documents: documents,
		chunks:    chunks,
		embedding: embedding,
		retrieval: retrieval,
		closed:    closed,
		logger:    logger,
	}
}

// Search runs one retrieval query.
//
// The candidate set is every chunk of the documents visible to the request:
// scoped queries see session documents plus global ones, unscoped queries
// see all documents whose embeddings are ready. An empty candidate set is
// not an error; the response carries an explanatory message instead.
// Results come back in descending score order, capped at the limit, with
// low-scoring matches dropped.
func (s *Search) Search(ctx context.Context, request SearchRequest) (SearchResponse, error) {
	if s.closed != nil && s.closed.Load() {
		return SearchResponse{}, ErrClientClosed
	}

	limit := request.Limit
	if limit <= 0 {
		limit = s.retrieval.SearchLimit()
	}
	if limit > s.retrieval.MaxLimit() {
		limit = s.retrieval.MaxLimit()
	}

	var docOptions []repository.Option
	if request.ScopeID != "" {
		docOptions = append(docOptions, repository.WithScope(request.ScopeID))
	} else {
		docOptions = append(docOptions, repository.WithEmbeddingsGenerated(true))
	}

	docs, err := s.documents.Find(ctx, docOptions...)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("find candidate documents: %w", err)
	}

	if len(docs) == 0 {
		return SearchResponse{
			results: []SearchResult{},
			query:   request.Query,
			message: EmptyCorpusMessage,
		}, nil
	}

	docIDs := make([]int64, len(docs))
	docByID := make(map[int64]document.Document, len(docs))
	for i, doc := range docs {
		docIDs[i] = doc.ID()
		docByID[doc.ID()] = doc
	}

	totalChunks, err := s.chunks.Count(ctx, repository.WithDocumentIDIn(docIDs...))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("count candidate chunks: %w", err)
	}
	if totalChunks == 0 {
		return SearchResponse{
			results: []SearchResult{},
			query:   request.Query,
			message: EmptyCorpusMessage,
		}, nil
	}

	ranked, err := s.embedding.Find(ctx, request.Query,
		repository.WithDocumentIDIn(docIDs...),
		repository.WithLimit(limit),
	)
	if err != nil {
		return SearchResponse{}, err
	}

	chunkIDs := make([]int64, 0, len(ranked))
	for _, r := range ranked {
		if r.Score() > s.retrieval.MinScore() {
			chunkIDs = append(chunkIDs, r.ChunkID())
		}
	}

	results := make([]SearchResult, 0, len(chunkIDs))
	if len(chunkIDs) > 0 {
		matched, err := s.chunks.Find(ctx, repository.WithIDIn(chunkIDs...))
		if err != nil {
			return SearchResponse{}, fmt.Errorf("load matched chunks: %w", err)
		}
		chunkByID := make(map[int64]chunk.Chunk, len(matched))
		for _, c := range matched {
			chunkByID[c.ID()] = c
		}

		for _, r := range ranked {
			if r.Score() <= s.retrieval.MinScore() {
				continue
			}
			c, ok := chunkByID[r.ChunkID()]
			if !ok {
				s.logger.Warn("ranked chunk disappeared", slog.Int64("chunk_id", r.ChunkID()))
				continue
			}
			doc, ok := docByID[c.DocumentID()]
			if !ok {
				continue
			}
			results = append(results, SearchResult{
				documentID:   doc.ID(),
				documentName: doc.Filename(),
				page:         c.PageEstimate(),
				snippet:      c.Snippet(s.retrieval.SnippetLength()),
				score:        roundScore(r.Score()),
			})
		}
	}

	s.logger.Debug("search completed",
		slog.String("query", request.Query),
		slog.String("scope_id", request.ScopeID),
		slog.Int("candidates", int(totalChunks)),
		slog.Int("results", len(results)),
	)

	return SearchResponse{
		results:     results,
		query:       request.Query,
		totalChunks: int(totalChunks),
	}, nil
}

// roundScore rounds to four decimal places for stable presentation.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

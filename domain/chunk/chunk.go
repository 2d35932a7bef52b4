// Package chunk provides domain types for document chunks, the unit of
// retrieval produced by splitting extracted text.
package chunk

import (
	"strings"
	"time"
)

// Chunk is a contiguous slice of a document's extracted text together with
// its position metadata. Immutable value object.
type Chunk struct {
	id            int64
	documentID    int64
	index         int
	content       string
	pageEstimate  int
	tokenEstimate int
	embedding     []float64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewChunk creates a Chunk for a new document split (not yet persisted).
// The token estimate is derived from content length.
func NewChunk(documentID int64, index int, content string, pageEstimate int) Chunk {
	return Chunk{
		documentID:    documentID,
		index:         index,
		content:       content,
		pageEstimate:  pageEstimate,
		tokenEstimate: EstimateTokens(content),
	}
}

// ReconstructChunk recreates a Chunk from persistence.
func ReconstructChunk(
	id, documentID int64,
	index int,
	content string,
	pageEstimate, tokenEstimate int,
	embedding []float64,
	createdAt, updatedAt time.Time,
) Chunk {
	var emb []float64
	if embedding != nil {
		emb = make([]float64, len(embedding))
		copy(emb, embedding)
	}
	return Chunk{
		id:            id,
		documentID:    documentID,
		index:         index,
		content:       content,
		pageEstimate:  pageEstimate,
		tokenEstimate: tokenEstimate,
		embedding:     emb,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the database identifier.
func (c Chunk) ID() int64 { return c.id }

// DocumentID returns the owning document's ID.
func (c Chunk) DocumentID() int64 { return c.documentID }

// Index returns the chunk's 0-based position within the document.
func (c Chunk) Index() int { return c.index }

// Content returns the chunk text.
func (c Chunk) Content() string { return c.content }

// PageEstimate returns the 1-based page the chunk most likely starts on.
func (c Chunk) PageEstimate() int { return c.pageEstimate }

// TokenEstimate returns the approximate token count of the content.
func (c Chunk) TokenEstimate() int { return c.tokenEstimate }

// Embedding returns a copy of the chunk's embedding vector, or nil when
// the chunk has not been embedded yet.
func (c Chunk) Embedding() []float64 {
	if c.embedding == nil {
		return nil
	}
	emb := make([]float64, len(c.embedding))
	copy(emb, c.embedding)
	return emb
}

// HasEmbedding reports whether the chunk carries an embedding vector.
func (c Chunk) HasEmbedding() bool { return len(c.embedding) > 0 }

// CreatedAt returns when the chunk was persisted.
func (c Chunk) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the chunk was last modified.
func (c Chunk) UpdatedAt() time.Time { return c.updatedAt }

// WithEmbedding returns a copy carrying the given embedding vector.
func (c Chunk) WithEmbedding(embedding []float64) Chunk {
	emb := make([]float64, len(embedding))
	copy(emb, embedding)
	c.embedding = emb
	return c
}

// Snippet returns the first maxLen characters of the content, terminated
// with an ellipsis when truncated.
func (c Chunk) Snippet(maxLen int) string {
	if maxLen <= 0 || len(c.content) <= maxLen {
		return c.content
	}
	return c.content[:maxLen] + "..."
}

// EstimateTokens approximates the token count of a text as one token per
// four characters, with a floor of one for non-empty text.
func EstimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	n := len(trimmed) / 4
	if n < 1 {
		return 1
	}
	return n
}

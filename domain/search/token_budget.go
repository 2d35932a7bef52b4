package search

import (
	"fmt"
	"unicode/utf8"

	"github.com/helixml/dokit/domain/chunk"
)

// defaultMaxBatchSize caps how many chunks are embedded and inserted per
// batch. Kept small to stay under request-size limits of embedding
// providers and the database client.
const defaultMaxBatchSize = 20

// TokenBudget constrains embedding batches to stay within model token limits.
// It holds a character budget and a maximum batch size: each batch's total
// (truncated) text must not exceed maxChars, each batch contains at most
// maxBatchSize chunks, and individual texts are truncated to maxChars.
type TokenBudget struct {
	maxChars     int
	maxBatchSize int
}

// NewTokenBudget creates a TokenBudget with the given character limit.
// maxChars must be positive.
func NewTokenBudget(maxChars int) (TokenBudget, error) {
	if maxChars <= 0 {
		return TokenBudget{}, fmt.Errorf("NewTokenBudget: maxChars must be positive, got %d", maxChars)
	}
	return TokenBudget{maxChars: maxChars, maxBatchSize: defaultMaxBatchSize}, nil
}

// DefaultTokenBudget returns a budget of 24 000 characters per batch,
// large enough that a default batch of twenty full-size chunks is limited
// by count rather than characters, while still protecting 8 192-token
// embedding models when larger chunk sizes are configured.
func DefaultTokenBudget() TokenBudget {
	b, _ := NewTokenBudget(24000)
	return b
}

// WithMaxBatchSize returns a new TokenBudget with the given maximum number
// of chunks per batch. Values <= 0 are clamped to 1.
func (b TokenBudget) WithMaxBatchSize(n int) TokenBudget {
	if n <= 0 {
		n = 1
	}
	b.maxBatchSize = n
	return b
}

// Truncate returns text capped to the character (rune) limit.
func (b TokenBudget) Truncate(text string) string {
	if utf8.RuneCountInString(text) <= b.maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:b.maxChars])
}

// Batches partitions chunks into groups whose total truncated character
// count stays within the budget and whose size does not exceed maxBatchSize.
// A single chunk whose truncated text still exceeds the character budget
// is placed alone in its own batch.
func (b TokenBudget) Batches(chunks []chunk.Chunk) [][]chunk.Chunk {
	if len(chunks) == 0 {
		return nil
	}

	var batches [][]chunk.Chunk
	i := 0

	for i < len(chunks) {
		start := i
		batchChars := 0

		for i < len(chunks) {
			if i-start >= b.maxBatchSize && i > start {
				break
			}

			textLen := min(utf8.RuneCountInString(chunks[i].Content()), b.maxChars)

			if batchChars+textLen > b.maxChars && i > start {
				break
			}

			batchChars += textLen
			i++
		}

		batch := make([]chunk.Chunk, i-start)
		copy(batch, chunks[start:i])
		batches = append(batches, batch)
	}

	return batches
}

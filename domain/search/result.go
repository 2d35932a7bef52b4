// Package search provides domain types for similarity search over
// embedded document chunks.
package search

// Result represents a scored search hit.
type Result struct {
	chunkID int64
	score   float64
}

// NewResult creates a new Result.
func NewResult(chunkID int64, score float64) Result {
	return Result{
		chunkID: chunkID,
		score:   score,
	}
}

// ChunkID returns the matched chunk's ID.
func (r Result) ChunkID() int64 { return r.chunkID }

// Score returns the combined relevance score.
func (r Result) Score() float64 { return r.score }

package search

import (
	"math"
	"strings"
)

// Score mixing weights. The keyword term is capped so exact term overlap
// can sharpen the ranking but never outvote the embedding signal.
const (
	embeddingWeight = 0.7
	keywordWeight   = 0.1
	keywordCap      = 0.3
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(magA) * math.Sqrt(magB))
}

// KeywordScore computes a term-frequency score for the query terms against
// the chunk content. Each term adds its non-overlapping occurrence count in
// the lowercased content divided by ln(len(term)+1). Terms must come from
// provider.Tokenize so the scorer splits queries exactly like the embedder.
func KeywordScore(content string, terms []string) float64 {
	if content == "" || len(terms) == 0 {
		return 0
	}

	lowered := strings.ToLower(content)

	var score float64
	for _, term := range terms {
		if term == "" {
			continue
		}
		count := strings.Count(lowered, term)
		if count == 0 {
			continue
		}
		score += float64(count) / math.Log(float64(len(term))+1)
	}
	return score
}

// CombinedScore mixes the embedding and keyword signals into the final
// relevance score.
func CombinedScore(embeddingScore, keywordScore float64) float64 {
	keywordTerm := keywordScore * keywordWeight
	if keywordTerm > keywordCap {
		keywordTerm = keywordCap
	}
	return embeddingScore*embeddingWeight + keywordTerm
}

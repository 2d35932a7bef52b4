package provider

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// DefaultHashDimension is the vector length of the built-in hash embedder.
const DefaultHashDimension = 256

// DefaultStopWords are the English function words the hash embedder drops
// before bucketing.
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with", "this", "but", "they", "have",
	"had", "what", "when", "where", "who", "which", "why", "how",
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)

// Tokenize lowercases text, replaces everything outside [a-z0-9\s] with a
// space, splits on whitespace, and drops tokens of length 2 or less. Both
// the hash embedder and the keyword scorer use this tokenization; they must
// not diverge or scores become incomparable.
func Tokenize(text string) []string {
	cleaned := nonAlnumPattern.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// HashEmbedding embeds text as a hashed bag-of-words sketch. Tokens are
// bucketed by a polynomial rolling hash and weighted by log-scaled term
// frequency, then the vector is L2-normalized. It is deterministic, needs
// no model files or network access, and is the default provider.
//
// Distinct words may share a bucket; that collision is accepted by design
// of the sketch.
type HashEmbedding struct {
	dimension int
	stopWords map[string]struct{}
}

// NewHashEmbedding creates a HashEmbedding. A dimension below 1 falls back
// to DefaultHashDimension; nil stopWords falls back to DefaultStopWords (an
// empty non-nil slice disables stop word filtering).
func NewHashEmbedding(dimension int, stopWords []string) *HashEmbedding {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &HashEmbedding{dimension: dimension, stopWords: set}
}

// Dimension returns the vector length produced by Embed.
func (h *HashEmbedding) Dimension() int { return h.dimension }

// Embed generates one vector per input text. Texts whose tokens are all
// filtered out produce an all-zero vector.
func (h *HashEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return EmbeddingResponse{}, err
		}
		embeddings[i] = h.embedText(text)
	}
	return NewEmbeddingResponse(embeddings, NewUsage(0, 0, 0)), nil
}

func (h *HashEmbedding) embedText(text string) []float64 {
	vec := make([]float64, h.dimension)

	freqs := make(map[string]int)
	for _, token := range Tokenize(text) {
		if _, stop := h.stopWords[token]; stop {
			continue
		}
		freqs[token]++
	}

	for token, freq := range freqs {
		f := float64(freq)
		vec[tokenBucket(token, h.dimension)] += f * (1 + math.Log(f))
	}

	normalizeL2(vec)
	return vec
}

// tokenBucket hashes a token with hash = hash*31 + charCode in 32-bit
// wraparound arithmetic and reduces it modulo the dimension. Tokens only
// contain [a-z0-9] after Tokenize, so iterating bytes matches iterating
// character codes.
func tokenBucket(token string, dimension int) int {
	var h uint32
	for i := 0; i < len(token); i++ {
		h = h*31 + uint32(token[i])
	}
	return int(h % uint32(dimension))
}

// normalizeL2 divides every component by the vector's Euclidean norm. An
// all-zero vector is left untouched rather than producing NaNs.
func normalizeL2(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

var _ Embedder = (*HashEmbedding)(nil)

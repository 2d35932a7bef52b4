package search

import "github.com/helixml/dokit/domain/repository"

// WithChunkID filters by a single chunk ID.
func WithChunkID(id int64) repository.Option {
	return repository.WithCondition("id", id)
}

// WithChunkIDs filters by multiple chunk IDs.
func WithChunkIDs(ids []int64) repository.Option {
	return repository.WithConditionIn("id", ids)
}

// WithEmbedding passes a pre-computed query embedding through options.
func WithEmbedding(embedding []float64) repository.Option {
	return repository.WithParam("embedding", embedding)
}

// WithQuery passes the raw query text through options. Searchers use it
// for keyword scoring alongside the embedding.
func WithQuery(query string) repository.Option {
	return repository.WithParam("search_query", query)
}

// EmbeddingFrom extracts the query embedding from a built query.
func EmbeddingFrom(q repository.Query) ([]float64, bool) {
	v, ok := q.Param("embedding")
	if !ok {
		return nil, false
	}
	emb, ok := v.([]float64)
	return emb, ok
}

// QueryFrom extracts the raw query text from a built query.
func QueryFrom(q repository.Query) (string, bool) {
	v, ok := q.Param("search_query")
	if !ok {
		return "", false
	}
	text, ok := v.(string)
	return text, ok
}

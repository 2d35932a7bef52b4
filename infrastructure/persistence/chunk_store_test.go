package persistence

import (
	"context"
	"testing"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStore_SaveAllAssignsIDs(t *testing.T) {
	store := NewChunkStore(newTestDB(t))
	ctx := context.Background()

	chunks := []chunk.Chunk{
		chunk.NewChunk(1, 0, "first chunk contents", 1),
		chunk.NewChunk(1, 1, "second chunk contents", 1),
		chunk.NewChunk(1, 2, "third chunk contents", 2),
	}

	saved, err := store.SaveAll(ctx, chunks)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	for _, c := range saved {
		assert.Positive(t, c.ID())
	}

	found, err := store.Find(ctx, repository.WithDocumentID(1), repository.WithOrderAsc("chunk_index"))
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "first chunk contents", found[0].Content())
	assert.Equal(t, 2, found[2].PageEstimate())
}

func TestChunkStore_SaveAllEmpty(t *testing.T) {
	store := NewChunkStore(newTestDB(t))

	saved, err := store.SaveAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestChunkStore_SaveAllUpsertsOnRetry(t *testing.T) {
	store := NewChunkStore(newTestDB(t))
	ctx := context.Background()

	_, err := store.SaveAll(ctx, []chunk.Chunk{chunk.NewChunk(5, 0, "original", 1)})
	require.NoError(t, err)

	// A retried ingestion writes the same (document, index) pair again.
	_, err = store.SaveAll(ctx, []chunk.Chunk{chunk.NewChunk(5, 0, "rewritten", 1)})
	require.NoError(t, err)

	found, err := store.Find(ctx, repository.WithDocumentID(5))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "rewritten", found[0].Content())
}

func TestChunkStore_EmbeddingRoundTrip(t *testing.T) {
	store := NewChunkStore(newTestDB(t))
	ctx := context.Background()

	plain := chunk.NewChunk(2, 0, "not yet embedded", 1)
	embedded := chunk.NewChunk(2, 1, "embedded chunk", 1).WithEmbedding([]float64{0.6, 0.0, 0.8})

	_, err := store.SaveAll(ctx, []chunk.Chunk{plain, embedded})
	require.NoError(t, err)

	found, err := store.Find(ctx, repository.WithDocumentID(2), repository.WithOrderAsc("chunk_index"))
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.False(t, found[0].HasEmbedding())

	require.True(t, found[1].HasEmbedding())
	vec := found[1].Embedding()
	require.Len(t, vec, 3)
	assert.InDelta(t, 0.6, vec[0], 0.0001)
	assert.InDelta(t, 0.8, vec[2], 0.0001)
}

func TestChunkStore_SaveUpdatesEmbedding(t *testing.T) {
	store := NewChunkStore(newTestDB(t))
	ctx := context.Background()

	saved, err := store.Save(ctx, chunk.NewChunk(3, 0, "to embed", 1))
	require.NoError(t, err)
	require.False(t, saved.HasEmbedding())

	_, err = store.Save(ctx, saved.WithEmbedding([]float64{1, 0}))
	require.NoError(t, err)

	found, err := store.FindOne(ctx, repository.WithID(saved.ID()))
	require.NoError(t, err)
	assert.True(t, found.HasEmbedding())

	count, err := store.Count(ctx, repository.WithDocumentID(3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChunkStore_DeleteByDocument(t *testing.T) {
	store := NewChunkStore(newTestDB(t))
	ctx := context.Background()

	_, err := store.SaveAll(ctx, []chunk.Chunk{
		chunk.NewChunk(7, 0, "doc seven a", 1),
		chunk.NewChunk(7, 1, "doc seven b", 1),
		chunk.NewChunk(8, 0, "doc eight", 1),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByDocument(ctx, 7))

	gone, err := store.Find(ctx, repository.WithDocumentID(7))
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.Find(ctx, repository.WithDocumentID(8))
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/domain/search"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/infrastructure/blob"
	"github.com/helixml/dokit/infrastructure/chunking"
	"github.com/helixml/dokit/infrastructure/extract"
	"github.com/helixml/dokit/infrastructure/persistence"
	"github.com/helixml/dokit/infrastructure/provider"
	infrasearch "github.com/helixml/dokit/infrastructure/search"
	"github.com/helixml/dokit/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	documents document.Store
	chunks    chunk.Store
	blobs     *blob.FilesystemStore
	service   *Ingest
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	db := testdb.New(t)
	documents := persistence.NewDocumentStore(db)
	chunks := persistence.NewChunkStore(db)

	blobs, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	searcher := infrasearch.NewChunkSearcher(chunks, logger)
	embedder := hashEmbedderAdapter{inner: provider.NewHashEmbedding(0, nil)}
	embedding, err := domainservice.NewEmbedding(chunks, searcher, embedder, search.DefaultTokenBudget())
	require.NoError(t, err)

	extractors := extract.NewRegistry(extract.NewHeuristicPDFExtractor())

	return &ingestFixture{
		documents: documents,
		chunks:    chunks,
		blobs:     blobs,
		service:   NewIngest(documents, chunks, blobs, extractors, embedding, chunking.DefaultChunkParams(), logger),
	}
}

// registerDocument stores the blob and the document record without queuing
// any ingestion work.
func (f *ingestFixture) registerDocument(t *testing.T, filename string, content []byte) document.Document {
	t.Helper()
	ctx := context.Background()
	path := "blobs/" + filename
	require.NoError(t, f.blobs.Put(ctx, path, content))

	doc, err := document.NewDocument(filename, "", path, int64(len(content)))
	require.NoError(t, err)
	doc, err = f.documents.Save(ctx, doc)
	require.NoError(t, err)
	return doc
}

// longArticle builds a multi-chunk plain text document.
func longArticle() string {
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "Section %d covers the installation procedure in detail. ", i)
		b.WriteString("The operator unpacks the distribution archive, verifies the checksum, and runs the setup script. ")
		b.WriteString("Configuration lives in a single file and every key is documented inline.\n")
	}
	return b.String()
}

func TestIngest_ExtractText(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	text := longArticle()
	doc := f.registerDocument(t, "install-guide.txt", []byte(text))

	updated, chunkCount, err := f.service.ExtractText(ctx, doc.ID())
	require.NoError(t, err)

	assert.Equal(t, text, updated.ExtractedText())
	assert.Equal(t, 1, updated.PageCount())
	assert.False(t, updated.EmbeddingsGenerated())
	assert.GreaterOrEqual(t, chunkCount, 2)

	stored, err := f.chunks.Find(ctx, repository.WithDocumentID(doc.ID()), repository.WithOrderAsc("chunk_index"))
	require.NoError(t, err)
	require.Len(t, stored, chunkCount)
	for i, c := range stored {
		assert.Equal(t, i, c.Index())
		assert.NotEmpty(t, c.Content())
		assert.False(t, c.HasEmbedding())
	}
}

func TestIngest_ExtractTextReplacesExistingChunks(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	doc := f.registerDocument(t, "install-guide.txt", []byte(longArticle()))

	_, first, err := f.service.ExtractText(ctx, doc.ID())
	require.NoError(t, err)
	_, second, err := f.service.ExtractText(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	count, err := f.chunks.Count(ctx, repository.WithDocumentID(doc.ID()))
	require.NoError(t, err)
	assert.Equal(t, int64(first), count)
}

func TestIngest_CreateEmbeddings(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	doc := f.registerDocument(t, "install-guide.txt", []byte(longArticle()))

	_, chunkCount, err := f.service.ExtractText(ctx, doc.ID())
	require.NoError(t, err)

	embedded, err := f.service.CreateEmbeddings(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, chunkCount, embedded)

	reloaded, err := f.documents.FindOne(ctx, repository.WithID(doc.ID()))
	require.NoError(t, err)
	assert.True(t, reloaded.EmbeddingsGenerated())

	stored, err := f.chunks.Find(ctx, repository.WithDocumentID(doc.ID()))
	require.NoError(t, err)
	require.Len(t, stored, chunkCount)
	for _, c := range stored {
		assert.True(t, c.HasEmbedding())
	}
}

func TestIngest_FullPipeline(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	text := longArticle()
	doc := f.registerDocument(t, "install-guide.txt", []byte(text))

	result, err := f.service.Ingest(ctx, doc.ID())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.ChunksCreated(), 2)
	assert.Equal(t, 1, result.PageCount())
	assert.Equal(t, len(text), result.TextLength())

	reloaded, err := f.documents.FindOne(ctx, repository.WithID(doc.ID()))
	require.NoError(t, err)
	assert.True(t, reloaded.EmbeddingsGenerated())
}

func TestIngest_MissingBlob(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	doc, err := document.NewDocument("ghost.txt", "text/plain", "blobs/ghost.txt", 0)
	require.NoError(t, err)
	doc, err = f.documents.Save(ctx, doc)
	require.NoError(t, err)

	_, _, err = f.service.ExtractText(ctx, doc.ID())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download blob")
}

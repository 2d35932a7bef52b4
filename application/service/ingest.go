package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/domain/search"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/infrastructure/chunking"
	"github.com/helixml/dokit/infrastructure/extract"
)

// IngestResult summarizes a completed ingestion run.
type IngestResult struct {
	chunksCreated int
	pageCount     int
	textLength    int
}

// ChunksCreated returns how many chunks were written.
func (r IngestResult) ChunksCreated() int { return r.chunksCreated }

// PageCount returns the extracted page count.
func (r IngestResult) PageCount() int { return r.pageCount }

// TextLength returns the length of the extracted text in bytes.
func (r IngestResult) TextLength() int { return r.textLength }

// Ingest runs the document ingestion pipeline: download the stored blob,
// extract text, chunk it, and embed the chunks. The two stages are exposed
// separately so the task queue can run them as individual operations, plus
// a combined entry point for synchronous ingestion.
type Ingest struct {
	documents  document.Store
	chunks     chunk.Store
	blobs      domainservice.BlobStore
	extractors *extract.Registry
	embedding  domainservice.Embedding
	params     chunking.ChunkParams
	logger     *slog.Logger
}

// NewIngest creates a new Ingest service.
func NewIngest(
	documents document.Store,
	chunks chunk.Store,
	blobs domainservice.BlobStore,
	extractors *extract.Registry,
	embedding domainservice.Embedding,
	params chunking.ChunkParams,
	logger *slog.Logger,
) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingest{
		documents:  documents,
		chunks:     chunks,
		blobs:      blobs,
		extractors: extractors,
		embedding:  embedding,
		params:     params,
		logger:     logger,
	}
}

// ExtractText runs the extraction stage: download the blob, extract text by
// media type, persist the text and page count on the document, and replace
// the document's chunks (without embeddings yet). Replacing rather than
// appending keeps re-ingestion idempotent.
// Returns the updated document and the number of chunks written.
func (s *Ingest) ExtractText(ctx context.Context, documentID int64) (document.Document, int, error) {
	doc, err := s.documents.FindOne(ctx, repository.WithID(documentID))
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("find document %d: %w", documentID, err)
	}

	data, err := s.blobs.Get(ctx, doc.StoragePath())
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("download blob %q: %w", doc.StoragePath(), err)
	}

	extraction, err := s.extractors.Extract(ctx, doc.MediaType(), data)
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("extract text: %w", err)
	}

	doc = doc.WithExtraction(extraction.Text(), extraction.PageCount())
	doc, err = s.documents.Save(ctx, doc)
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("save extraction: %w", err)
	}

	textChunks, err := chunking.NewTextChunks(extraction.Text(), s.params, extraction.PageCount())
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("chunk text: %w", err)
	}

	if err := s.chunks.DeleteByDocument(ctx, doc.ID()); err != nil {
		return document.Document{}, 0, fmt.Errorf("clear existing chunks: %w", err)
	}

	pieces := textChunks.All()
	newChunks := make([]chunk.Chunk, len(pieces))
	for i, piece := range pieces {
		newChunks[i] = chunk.NewChunk(doc.ID(), piece.Index(), piece.Content(), piece.PageEstimate())
	}

	saved, err := s.chunks.SaveAll(ctx, newChunks)
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("save chunks: %w", err)
	}

	s.logger.Info("text extracted",
		slog.Int64("document_id", doc.ID()),
		slog.String("media_type", doc.MediaType()),
		slog.Int("pages", extraction.PageCount()),
		slog.Int("chunks", len(saved)),
	)

	return doc, len(saved), nil
}

// CreateEmbeddings runs the embedding stage over the document's stored
// chunks and flips the document's readiness flag. Batch failures inside the
// embedding service are joined and returned, but the flag still flips:
// ingestion is best effort with no rollback.
// Returns the number of chunks embedded and saved.
func (s *Ingest) CreateEmbeddings(ctx context.Context, documentID int64, opts ...search.IndexOption) (int, error) {
	doc, err := s.documents.FindOne(ctx, repository.WithID(documentID))
	if err != nil {
		return 0, fmt.Errorf("find document %d: %w", documentID, err)
	}

	stored, err := s.chunks.Find(ctx, repository.WithDocumentID(documentID), repository.WithOrderAsc("chunk_index"))
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}

	saved, indexErr := s.embedding.Index(ctx, stored, opts...)

	if _, err := s.documents.Save(ctx, doc.WithEmbeddingsGenerated()); err != nil {
		return len(saved), fmt.Errorf("mark embeddings generated: %w", err)
	}

	if indexErr != nil {
		return len(saved), indexErr
	}

	s.logger.Info("embeddings created",
		slog.Int64("document_id", doc.ID()),
		slog.Int("chunks", len(saved)),
	)

	return len(saved), nil
}

// Ingest runs the full pipeline synchronously. Extraction failures abort
// the call; embedding batch failures are logged and the run still reports
// what it managed to write, matching the pipeline's best-effort contract.
func (s *Ingest) Ingest(ctx context.Context, documentID int64, opts ...search.IndexOption) (IngestResult, error) {
	doc, _, err := s.ExtractText(ctx, documentID)
	if err != nil {
		return IngestResult{}, err
	}

	embedded, err := s.CreateEmbeddings(ctx, documentID, opts...)
	if err != nil {
		s.logger.Warn("embedding stage finished with errors",
			slog.Int64("document_id", documentID),
			slog.Int("chunks_saved", embedded),
			slog.String("error", err.Error()),
		)
	}

	return IngestResult{
		chunksCreated: embedded,
		pageCount:     doc.PageCount(),
		textLength:    len(doc.ExtractedText()),
	}, nil
}

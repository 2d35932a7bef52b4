// Package document provides task handlers for the document ingestion
// and deletion workflows.
package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/dokit/application/handler"
	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/task"
)

// ExtractText handles the extract_text task operation.
// It downloads the stored blob, extracts text, and rewrites the
// document's chunks.
type ExtractText struct {
	ingest         *service.Ingest
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewExtractText creates a new ExtractText handler.
func NewExtractText(
	ingest *service.Ingest,
	trackerFactory handler.TrackerFactory,
	logger *slog.Logger,
) *ExtractText {
	return &ExtractText{
		ingest:         ingest,
		trackerFactory: trackerFactory,
		logger:         logger,
	}
}

// Execute processes the extract_text task.
func (h *ExtractText) Execute(ctx context.Context, payload map[string]any) error {
	docID, err := handler.ExtractInt64(payload, "document_id")
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(
		task.OperationExtractText,
		task.TrackableTypeDocument,
		docID,
	)

	doc, chunks, err := h.ingest.ExtractText(ctx, docID)
	if err != nil {
		tracker.Fail(ctx, err.Error())
		return fmt.Errorf("extract text for document %d: %w", docID, err)
	}

	if chunks == 0 {
		tracker.Skip(ctx, "Document produced no chunks")
		return nil
	}

	tracker.Complete(ctx)

	h.logger.Info("document text extracted",
		slog.Int64("document_id", doc.ID()),
		slog.Int("pages", doc.PageCount()),
		slog.Int("chunks", chunks),
	)

	return nil
}

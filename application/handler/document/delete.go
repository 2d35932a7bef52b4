package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/dokit/application/handler"
	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/domain/task"
)

// Delete handles the document delete task operation.
// It removes the document's chunks, stored blob, tracking statuses, and
// finally the record itself.
type Delete struct {
	documents      document.Store
	chunks         ChunkDeleter
	blobs          domainservice.BlobStore
	statuses       task.StatusStore
	queue          *service.Queue
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// ChunkDeleter removes all chunks belonging to a document.
type ChunkDeleter interface {
	DeleteByDocument(ctx context.Context, documentID int64) error
}

// NewDelete creates a new Delete handler.
func NewDelete(
	documents document.Store,
	chunks ChunkDeleter,
	blobs domainservice.BlobStore,
	statuses task.StatusStore,
	queue *service.Queue,
	trackerFactory handler.TrackerFactory,
	logger *slog.Logger,
) *Delete {
	return &Delete{
		documents:      documents,
		chunks:         chunks,
		blobs:          blobs,
		statuses:       statuses,
		queue:          queue,
		trackerFactory: trackerFactory,
		logger:         logger,
	}
}

// Execute processes the document delete task.
func (h *Delete) Execute(ctx context.Context, payload map[string]any) error {
	docID, err := handler.ExtractInt64(payload, "document_id")
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(
		task.OperationDeleteDocument,
		task.TrackableTypeDocument,
		docID,
	)

	doc, err := h.documents.FindOne(ctx, repository.WithID(docID))
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	// Drain leftover ingestion tasks so they don't run against a
	// document that is already gone.
	drained, err := h.queue.DrainForDocument(ctx, docID)
	if err != nil {
		h.logger.Warn("failed to drain pending tasks", slog.String("error", err.Error()))
	}
	if drained > 0 {
		h.logger.Info("drained pending tasks for document",
			slog.Int64("document_id", docID),
			slog.Int("drained", drained),
		)
	}

	tracker.SetTotal(ctx, 3)

	tracker.SetCurrent(ctx, 0, "Deleting chunks")
	if err := h.chunks.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	tracker.SetCurrent(ctx, 1, "Deleting stored blob")
	if err := h.blobs.Delete(ctx, doc.StoragePath()); err != nil {
		h.logger.Warn("failed to delete blob",
			slog.String("path", doc.StoragePath()),
			slog.String("error", err.Error()),
		)
	}

	// Status records track the document polymorphically, so they are
	// not cascade-deleted with the record.
	tracker.SetCurrent(ctx, 2, "Deleting document record")
	if err := h.statuses.DeleteByTrackable(ctx, task.TrackableTypeDocument, docID); err != nil {
		h.logger.Warn("failed to delete status records", slog.String("error", err.Error()))
	}

	if err := h.documents.Delete(ctx, doc); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	h.logger.Info("document deleted successfully",
		slog.Int64("document_id", docID),
		slog.String("filename", doc.Filename()),
	)

	return nil
}

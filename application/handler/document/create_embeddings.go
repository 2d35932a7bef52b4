package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/dokit/application/handler"
	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/search"
	"github.com/helixml/dokit/domain/task"
)

// CreateEmbeddings handles the create_embeddings task operation.
// It embeds the document's stored chunks and flips the document's
// readiness flag.
type CreateEmbeddings struct {
	ingest         *service.Ingest
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewCreateEmbeddings creates a new CreateEmbeddings handler.
func NewCreateEmbeddings(
	ingest *service.Ingest,
	trackerFactory handler.TrackerFactory,
	logger *slog.Logger,
) *CreateEmbeddings {
	return &CreateEmbeddings{
		ingest:         ingest,
		trackerFactory: trackerFactory,
		logger:         logger,
	}
}

// Execute processes the create_embeddings task.
func (h *CreateEmbeddings) Execute(ctx context.Context, payload map[string]any) error {
	docID, err := handler.ExtractInt64(payload, "document_id")
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(
		task.OperationCreateEmbeddings,
		task.TrackableTypeDocument,
		docID,
	)

	totalSet := false
	embedded, err := h.ingest.CreateEmbeddings(ctx, docID,
		search.WithProgress(func(completed, total int) {
			if !totalSet {
				tracker.SetTotal(ctx, total)
				totalSet = true
			}
			tracker.SetCurrent(ctx, completed, "Embedding chunks")
		}),
	)
	if err != nil {
		tracker.Fail(ctx, err.Error())
		return fmt.Errorf("create embeddings for document %d: %w", docID, err)
	}

	if embedded == 0 {
		tracker.Skip(ctx, "No chunks to embed")
		return nil
	}

	tracker.Complete(ctx)

	h.logger.Info("document embeddings created",
		slog.Int64("document_id", docID),
		slog.Int("chunks", embedded),
	)

	return nil
}

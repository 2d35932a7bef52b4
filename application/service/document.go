package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/internal/database"
)

// ErrNoContent indicates a registration with neither inline content nor a
// storage path.
var ErrNoContent = errors.New("document requires content or a storage path")

// DocumentAddParams configures registering a new document.
type DocumentAddParams struct {
	// Filename names the document. Required.
	Filename string

	// MediaType overrides media type detection from the filename.
	MediaType string

	// Content holds the raw document bytes to upload. When set, the blob
	// is stored under a generated storage key.
	Content []byte

	// StoragePath points at an already-stored blob. Used when Content is
	// empty; the blob must exist.
	StoragePath string

	// SessionID scopes the document to one session. Empty means unscoped.
	SessionID string

	// Global marks the document visible to every session.
	Global bool
}

// Document provides document registration and query operations.
// Embeds Collection for Find/Get; bespoke methods handle the lifecycle.
type Document struct {
	repository.Collection[document.Document]
	store      document.Store
	blobs      domainservice.BlobStore
	queue      *Queue
	prescribed task.PrescribedOperations
	logger     *slog.Logger
}

// NewDocument creates a new Document service.
func NewDocument(
	store document.Store,
	blobs domainservice.BlobStore,
	queue *Queue,
	prescribed task.PrescribedOperations,
	logger *slog.Logger,
) *Document {
	return &Document{
		Collection: repository.NewCollection[document.Document](store),
		store:      store,
		blobs:      blobs,
		queue:      queue,
		prescribed: prescribed,
		logger:     logger,
	}
}

// Add registers a document and queues it for ingestion.
// Inline content is written to the blob store under a generated key;
// registration by storage path requires the blob to already exist.
func (s *Document) Add(ctx context.Context, params *DocumentAddParams) (document.Document, error) {
	mediaType := params.MediaType
	if mediaType == "" {
		mediaType = document.GuessMediaType(params.Filename)
	}

	storagePath := params.StoragePath
	size := int64(len(params.Content))

	switch {
	case len(params.Content) > 0:
		if storagePath == "" {
			storagePath = storageKey(params.Filename)
		}
		if err := s.blobs.Put(ctx, storagePath, params.Content); err != nil {
			return document.Document{}, fmt.Errorf("store blob: %w", err)
		}
	case storagePath != "":
		exists, err := s.blobs.Exists(ctx, storagePath)
		if err != nil {
			return document.Document{}, fmt.Errorf("check blob: %w", err)
		}
		if !exists {
			return document.Document{}, fmt.Errorf("blob %q: %w", storagePath, database.ErrNotFound)
		}
	default:
		return document.Document{}, ErrNoContent
	}

	doc, err := document.NewDocument(params.Filename, mediaType, storagePath, size)
	if err != nil {
		return document.Document{}, err
	}
	if params.SessionID != "" || params.Global {
		doc = doc.WithScope(params.SessionID, params.Global)
	}

	saved, err := s.store.Save(ctx, doc)
	if err != nil {
		return document.Document{}, fmt.Errorf("save document: %w", err)
	}

	payload := map[string]any{"document_id": saved.ID()}
	if err := s.queue.EnqueueOperations(ctx, s.prescribed.IngestDocument(), task.PriorityUserInitiated, payload); err != nil {
		s.logger.Warn("failed to enqueue ingestion",
			slog.Int64("document_id", saved.ID()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("document registered",
		slog.Int64("document_id", saved.ID()),
		slog.String("filename", saved.Filename()),
		slog.String("media_type", saved.MediaType()),
		slog.Int64("size_bytes", saved.SizeBytes()),
	)

	return saved, nil
}

// Reingest queues the ingestion workflow for an existing document.
func (s *Document) Reingest(ctx context.Context, id int64) error {
	doc, err := s.store.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	payload := map[string]any{"document_id": doc.ID()}
	if err := s.queue.EnqueueOperations(ctx, s.prescribed.IngestDocument(), task.PriorityUserInitiated, payload); err != nil {
		return fmt.Errorf("enqueue ingestion: %w", err)
	}

	s.logger.Info("ingestion requested",
		slog.Int64("document_id", doc.ID()),
	)

	return nil
}

// Delete removes a document and all associated data.
// Pending ingestion tasks are drained first so they cannot resurrect
// chunks after the delete runs.
func (s *Document) Delete(ctx context.Context, id int64) error {
	_, err := s.store.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	drained, err := s.queue.DrainForDocument(ctx, id)
	if err != nil {
		s.logger.Warn("failed to drain pending tasks",
			slog.Int64("document_id", id),
			slog.String("error", err.Error()),
		)
	} else if drained > 0 {
		s.logger.Debug("drained pending tasks",
			slog.Int64("document_id", id),
			slog.Int("count", drained),
		)
	}

	payload := map[string]any{"document_id": id}
	t := task.NewTask(task.OperationDeleteDocument, int(task.PriorityCritical), payload)

	if err := s.queue.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("enqueue delete: %w", err)
	}

	s.logger.Info("delete requested",
		slog.Int64("document_id", id),
	)

	return nil
}

// Content returns the stored raw bytes for a document.
func (s *Document) Content(ctx context.Context, id int64) ([]byte, error) {
	doc, err := s.store.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	data, err := s.blobs.Get(ctx, doc.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("download blob %q: %w", doc.StoragePath(), err)
	}
	return data, nil
}

// storageKey generates a unique blob key, keeping the original extension
// so media type detection works on the stored path too.
func storageKey(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

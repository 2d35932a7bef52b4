package service

import (
	"context"
	"fmt"

	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/domain/tracking"
)

// Tracking exposes ingestion progress: per-operation status records and a
// rolled-up summary per document.
type Tracking struct {
	statuses task.StatusStore
	tasks    task.TaskStore
}

// NewTracking creates a new Tracking service.
func NewTracking(statuses task.StatusStore, tasks task.TaskStore) *Tracking {
	return &Tracking{
		statuses: statuses,
		tasks:    tasks,
	}
}

// Statuses returns the persisted task statuses for a document, with parent
// pointers reconstructed for hierarchical display.
func (s *Tracking) Statuses(ctx context.Context, documentID int64) ([]task.Status, error) {
	statuses, err := s.statuses.LoadWithHierarchy(ctx, task.TrackableTypeDocument, documentID)
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	return statuses, nil
}

// Summary aggregates a document's task statuses and queued work into a
// single ingest status.
func (s *Tracking) Summary(ctx context.Context, documentID int64) (tracking.DocumentStatusSummary, error) {
	statuses, err := s.statuses.LoadWithHierarchy(ctx, task.TrackableTypeDocument, documentID)
	if err != nil {
		return tracking.DocumentStatusSummary{}, fmt.Errorf("load statuses: %w", err)
	}

	pending, err := s.pendingCount(ctx, documentID)
	if err != nil {
		return tracking.DocumentStatusSummary{}, err
	}

	return tracking.StatusSummaryFromTasks(statuses, pending), nil
}

// pendingCount counts queued tasks whose payload references the document.
func (s *Tracking) pendingCount(ctx context.Context, documentID int64) (int, error) {
	queued, err := s.tasks.FindPending(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("find pending tasks: %w", err)
	}

	count := 0
	for _, t := range queued {
		if payloadDocumentID(t.Payload()) == documentID {
			count++
		}
	}
	return count, nil
}

// payloadDocumentID extracts the document_id from a task payload, or 0
// when the payload does not reference a document.
func payloadDocumentID(payload map[string]any) int64 {
	id, _ := extractInt64(payload, "document_id")
	return id
}

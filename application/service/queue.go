package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/dokit/domain/task"
)

// TaskListParams configures task listing.
type TaskListParams struct {
	Operation *task.Operation
	Limit     int
}

// Queue provides the main interface for enqueuing and managing tasks.
type Queue struct {
	store  task.TaskStore
	logger *slog.Logger
}

// NewQueue creates a new queue service.
func NewQueue(store task.TaskStore, logger *slog.Logger) *Queue {
	return &Queue{
		store:  store,
		logger: logger,
	}
}

// Enqueue adds a task to the queue.
// If a task with the same dedup_key exists, it updates the priority instead.
func (s *Queue) Enqueue(ctx context.Context, t task.Task) error {
	_, err := s.store.Save(ctx, t)
	if err != nil {
		return err
	}

	s.logger.Debug("task enqueued",
		slog.String("dedup_key", t.DedupKey()),
		slog.String("operation", t.Operation().String()),
	)
	return nil
}

// EnqueueOperations queues a chain of operations for one payload. Earlier
// operations get higher priority so the worker processes the chain in order.
func (s *Queue) EnqueueOperations(
	ctx context.Context,
	operations []task.Operation,
	basePriority task.Priority,
	payload map[string]any,
) error {
	for i, op := range operations {
		priority := int(basePriority) + (len(operations)-i)*10
		if err := s.Enqueue(ctx, task.NewTask(op, priority, payload)); err != nil {
			return fmt.Errorf("enqueue %s: %w", op, err)
		}
	}
	return nil
}

// List returns pending tasks matching the given params.
// Tasks are sorted by priority (highest first) then by created_at (oldest first).
func (s *Queue) List(ctx context.Context, params *TaskListParams) ([]task.Task, error) {
	limit := 0
	if params != nil && params.Limit > 0 {
		limit = params.Limit
	}

	if params != nil && params.Operation != nil {
		return s.store.FindPendingByOperation(ctx, *params.Operation, limit)
	}
	return s.store.FindPending(ctx, limit)
}

// Count returns the total number of pending tasks.
func (s *Queue) Count(ctx context.Context) (int64, error) {
	return s.store.CountPending(ctx)
}

// Get retrieves a task by ID.
func (s *Queue) Get(ctx context.Context, id int64) (task.Task, error) {
	return s.store.Get(ctx, id)
}

// PendingForDocument returns the pending tasks whose payload references
// the given document.
func (s *Queue) PendingForDocument(ctx context.Context, documentID int64) ([]task.Task, error) {
	tasks, err := s.store.FindPending(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("find pending tasks: %w", err)
	}

	matched := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if id, ok := extractInt64(t.Payload(), "document_id"); ok && id == documentID {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// DrainForDocument removes all pending tasks whose payload contains
// the given document_id. This prevents stale ingestion tasks from
// blocking a document deletion.
func (s *Queue) DrainForDocument(ctx context.Context, documentID int64) (int, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("find pending tasks: %w", err)
	}

	removed := 0
	for _, t := range tasks {
		if id, ok := extractInt64(t.Payload(), "document_id"); !ok || id != documentID {
			continue
		}
		if err := s.store.Delete(ctx, t); err != nil {
			return removed, fmt.Errorf("delete task %d: %w", t.ID(), err)
		}
		removed++
	}
	return removed, nil
}

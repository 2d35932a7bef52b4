package task

import "context"

// TaskStore defines persistence for the task queue.
type TaskStore interface {
	// Get retrieves a task by ID.
	Get(ctx context.Context, id int64) (Task, error)

	// FindAll retrieves all tasks.
	FindAll(ctx context.Context) ([]Task, error)

	// FindPending retrieves pending tasks ordered by priority (descending)
	// then creation time (ascending).
	FindPending(ctx context.Context, limit int) ([]Task, error)

	// FindPendingByOperation retrieves pending tasks of a single operation
	// type, ordered like FindPending.
	FindPendingByOperation(ctx context.Context, op Operation, limit int) ([]Task, error)

	// Save persists a task, updating priority on dedup key conflict.
	Save(ctx context.Context, t Task) (Task, error)

	// SaveBulk persists multiple tasks in one operation.
	SaveBulk(ctx context.Context, tasks []Task) error

	// Delete removes a task.
	Delete(ctx context.Context, t Task) error

	// DeleteAll removes all tasks.
	DeleteAll(ctx context.Context) error

	// CountPending returns the number of queued tasks.
	CountPending(ctx context.Context) (int64, error)

	// Exists checks whether a task with the given dedup key is queued.
	Exists(ctx context.Context, dedupKey string) (bool, error)

	// Dequeue atomically claims and removes the highest priority task.
	// Returns false when the queue is empty.
	Dequeue(ctx context.Context) (Task, bool, error)

	// DequeueByOperation atomically claims the highest priority task
	// matching one of the given operations.
	DequeueByOperation(ctx context.Context, operations ...Operation) (Task, bool, error)
}

// StatusStore defines persistence for task status records.
type StatusStore interface {
	// Get retrieves a status by ID.
	Get(ctx context.Context, id string) (Status, error)

	// FindByTrackable retrieves statuses for a trackable entity ordered
	// by creation time.
	FindByTrackable(ctx context.Context, trackableType TrackableType, trackableID int64) ([]Status, error)

	// Save persists a status record.
	Save(ctx context.Context, s Status) error

	// SaveBulk persists multiple status records.
	SaveBulk(ctx context.Context, statuses []Status) error

	// Delete removes a status record.
	Delete(ctx context.Context, s Status) error

	// DeleteByTrackable removes all statuses for a trackable entity.
	DeleteByTrackable(ctx context.Context, trackableType TrackableType, trackableID int64) error

	// Count returns the total number of status records.
	Count(ctx context.Context) (int64, error)

	// LoadWithHierarchy retrieves statuses for a trackable entity with
	// parent pointers reconstructed.
	LoadWithHierarchy(ctx context.Context, trackableType TrackableType, trackableID int64) ([]Status, error)
}

package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/helixml/dokit/domain/task"
)

// Tracker wraps a task.Status and fans every state change out to the
// subscribed reporters.
type Tracker struct {
	status      task.Status
	subscribers []Reporter
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewTracker creates a tracker around an existing Status.
func NewTracker(status task.Status, logger *slog.Logger) *Tracker {
	return &Tracker{
		status:      status,
		subscribers: make([]Reporter, 0),
		logger:      logger,
	}
}

// TrackerForOperation creates a tracker with a fresh started Status for
// the given operation and trackable entity.
func TrackerForOperation(
	operation task.Operation,
	logger *slog.Logger,
	trackableType task.TrackableType,
	trackableID int64,
) *Tracker {
	return NewTracker(task.NewStatus(operation, nil, trackableType, trackableID), logger)
}

// Status returns a copy of the current Status.
func (t *Tracker) Status() task.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Subscribe registers a reporter for status change notifications.
func (t *Tracker) Subscribe(reporter Reporter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, reporter)
}

// update applies a transition under the lock and notifies subscribers
// with the resulting snapshot.
func (t *Tracker) update(ctx context.Context, apply func(task.Status) task.Status) {
	t.mu.Lock()
	t.status = apply(t.status)
	status := t.status
	t.mu.Unlock()

	t.notify(ctx, status)
}

// SetTotal records the expected number of progress steps.
func (t *Tracker) SetTotal(ctx context.Context, total int) {
	t.update(ctx, func(s task.Status) task.Status { return s.SetTotal(total) })
}

// SetCurrent records progress and optionally a message.
func (t *Tracker) SetCurrent(ctx context.Context, current int, message string) {
	t.update(ctx, func(s task.Status) task.Status { return s.SetCurrent(current, message) })
}

// Skip marks the task as skipped with a reason.
func (t *Tracker) Skip(ctx context.Context, reason string) {
	t.update(ctx, func(s task.Status) task.Status { return s.Skip(reason) })
}

// Fail marks the task as failed with an error message.
func (t *Tracker) Fail(ctx context.Context, errMsg string) {
	t.update(ctx, func(s task.Status) task.Status { return s.Fail(errMsg) })
}

// Complete marks the task as completed.
func (t *Tracker) Complete(ctx context.Context) {
	t.update(ctx, func(s task.Status) task.Status { return s.Complete() })
}

// Child creates a tracker for a sub-operation. The child's status points
// back at the parent's and inherits its subscribers and trackable entity.
func (t *Tracker) Child(operation task.Operation) *Tracker {
	t.mu.RLock()
	parentStatus := t.status
	subscribers := make([]Reporter, len(t.subscribers))
	copy(subscribers, t.subscribers)
	t.mu.RUnlock()

	return &Tracker{
		status: task.NewStatus(
			operation,
			&parentStatus,
			parentStatus.TrackableType(),
			parentStatus.TrackableID(),
		),
		subscribers: subscribers,
		logger:      t.logger,
	}
}

// Notify pushes the current status to all subscribers. Used after setup
// to announce the tracker's existence.
func (t *Tracker) Notify(ctx context.Context) {
	t.mu.RLock()
	status := t.status
	t.mu.RUnlock()

	t.notify(ctx, status)
}

// notify delivers the snapshot to every subscriber. A failing subscriber
// is logged and does not block the rest.
func (t *Tracker) notify(ctx context.Context, status task.Status) {
	t.mu.RLock()
	subscribers := make([]Reporter, len(t.subscribers))
	copy(subscribers, t.subscribers)
	t.mu.RUnlock()

	for _, subscriber := range subscribers {
		if err := subscriber.OnChange(ctx, status); err != nil {
			t.logger.Error("failed to notify subscriber",
				slog.String("error", err.Error()),
				slog.String("operation", status.Operation().String()),
			)
		}
	}
}

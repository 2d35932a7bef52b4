// Package tracking provides progress tracking for queued operations.
// Trackers wrap a task.Status and fan out state changes to subscribed
// reporters (logging, database persistence, throttling decorators).
package tracking

import (
	"context"
	"log/slog"

	"github.com/helixml/dokit/domain/task"
)

// Reporter defines the interface for progress reporting modules.
// Implementations receive notifications when task status changes.
type Reporter interface {
	// OnChange is called when a task status changes.
	OnChange(ctx context.Context, status task.Status) error
}

// DBReporter implements Reporter by persisting status changes to the database.
type DBReporter struct {
	store  task.StatusStore
	logger *slog.Logger
}

// NewDBReporter creates a new DBReporter.
func NewDBReporter(store task.StatusStore, logger *slog.Logger) *DBReporter {
	return &DBReporter{
		store:  store,
		logger: logger,
	}
}

// OnChange persists the task status to the database.
func (r *DBReporter) OnChange(ctx context.Context, status task.Status) error {
	if err := r.store.Save(ctx, status); err != nil {
		r.logger.Error("failed to save task status",
			slog.String("error", err.Error()),
			slog.String("operation", status.Operation().String()),
		)
		return err
	}
	return nil
}

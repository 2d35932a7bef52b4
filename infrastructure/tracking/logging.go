package tracking

import (
	"context"
	"log/slog"

	"github.com/helixml/dokit/domain/task"
)

// LoggingReporter implements Reporter by logging status changes.
type LoggingReporter struct {
	logger *slog.Logger
}

// NewLoggingReporter creates a new LoggingReporter.
func NewLoggingReporter(logger *slog.Logger) *LoggingReporter {
	return &LoggingReporter{logger: logger}
}

// OnChange logs one status change, at error level for failures.
func (r *LoggingReporter) OnChange(_ context.Context, status task.Status) error {
	attrs := []any{
		slog.String("state", string(status.State())),
		slog.Float64("completion_percent", status.CompletionPercent()),
	}
	if msg := status.Message(); msg != "" {
		attrs = append(attrs, slog.String("message", msg))
	}

	if status.State() == task.ReportingStateFailed {
		attrs = append(attrs, slog.String("error", status.Error()))
		r.logger.Error(status.Operation().String(), attrs...)
		return nil
	}

	r.logger.Info(status.Operation().String(), attrs...)
	return nil
}

// Package tracking aggregates task status records into high-level
// progress summaries.
package tracking

import (
	"time"

	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/task"
)

// DocumentStatusSummary provides a summary of document ingestion status.
// It aggregates task status information into a high-level view.
type DocumentStatusSummary struct {
	status    document.IngestStatus
	message   string
	updatedAt time.Time
}

// NewDocumentStatusSummary creates a new DocumentStatusSummary.
func NewDocumentStatusSummary(status document.IngestStatus, message string, updatedAt time.Time) DocumentStatusSummary {
	return DocumentStatusSummary{
		status:    status,
		message:   message,
		updatedAt: updatedAt,
	}
}

// Status returns the overall ingestion status.
func (s DocumentStatusSummary) Status() document.IngestStatus {
	return s.status
}

// Message returns the status message (typically error message if failed).
func (s DocumentStatusSummary) Message() string {
	return s.message
}

// UpdatedAt returns the timestamp of the most recent activity.
func (s DocumentStatusSummary) UpdatedAt() time.Time {
	return s.updatedAt
}

// StatusSummaryFromTasks derives a DocumentStatusSummary from task statuses.
// Priority: in_progress/started > pending_queue > completed_with_errors/failed > completed > pending.
// When all tasks are terminal and failures exist, returns completed_with_errors
// if more tasks succeeded than failed, otherwise returns failed.
func StatusSummaryFromTasks(tasks []task.Status, pendingTaskCount int) DocumentStatusSummary {
	now := time.Now()

	if len(tasks) == 0 {
		if pendingTaskCount > 0 {
			return NewDocumentStatusSummary(document.IngestStatusInProgress, "", now)
		}
		return NewDocumentStatusSummary(document.IngestStatusPending, "", now)
	}

	// In-progress tasks take priority: work is still running.
	var mostRecentInProgress *task.Status
	for i := range tasks {
		t := &tasks[i]
		state := t.State()
		if state == task.ReportingStateInProgress || state == task.ReportingStateStarted {
			if mostRecentInProgress == nil || t.UpdatedAt().After(mostRecentInProgress.UpdatedAt()) {
				mostRecentInProgress = t
			}
		}
	}
	if mostRecentInProgress != nil {
		return NewDocumentStatusSummary(
			document.IngestStatusInProgress,
			"",
			mostRecentInProgress.UpdatedAt(),
		)
	}

	// If we have pending queue tasks, work is still running
	if pendingTaskCount > 0 {
		return NewDocumentStatusSummary(document.IngestStatusInProgress, "", now)
	}

	// Count terminal states and track most recent of each
	var (
		completedCount      int
		failedCount         int
		mostRecentFailed    *task.Status
		mostRecentCompleted *task.Status
	)
	for i := range tasks {
		t := &tasks[i]
		switch t.State() {
		case task.ReportingStateCompleted, task.ReportingStateSkipped:
			completedCount++
			if mostRecentCompleted == nil || t.UpdatedAt().After(mostRecentCompleted.UpdatedAt()) {
				mostRecentCompleted = t
			}
		case task.ReportingStateFailed:
			failedCount++
			if mostRecentFailed == nil || t.UpdatedAt().After(mostRecentFailed.UpdatedAt()) {
				mostRecentFailed = t
			}
		}
	}

	if mostRecentFailed != nil && completedCount > failedCount {
		return NewDocumentStatusSummary(
			document.IngestStatusCompletedWithErrors,
			mostRecentFailed.Error(),
			mostRecentFailed.UpdatedAt(),
		)
	}
	if mostRecentFailed != nil {
		return NewDocumentStatusSummary(
			document.IngestStatusFailed,
			mostRecentFailed.Error(),
			mostRecentFailed.UpdatedAt(),
		)
	}
	if mostRecentCompleted != nil {
		return NewDocumentStatusSummary(
			document.IngestStatusCompleted,
			"",
			mostRecentCompleted.UpdatedAt(),
		)
	}

	// Default to pending
	return NewDocumentStatusSummary(document.IngestStatusPending, "", now)
}

package tracking

import (
	"testing"
	"time"

	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/task"
)

func testStatus(state task.ReportingState, errorMsg string, updatedAt time.Time) task.Status {
	return task.NewStatusFull(
		"test-id",
		state,
		task.OperationExtractText,
		"",
		time.Now(), updatedAt,
		0, 0,
		errorMsg,
		nil, 0, "",
	)
}

func statusWithState(state task.ReportingState, updatedAt time.Time) task.Status {
	return testStatus(state, "", updatedAt)
}

func failedStatus(errorMsg string, updatedAt time.Time) task.Status {
	return testStatus(task.ReportingStateFailed, errorMsg, updatedAt)
}

func TestStatusSummaryFromTasks_Empty_NoPending(t *testing.T) {
	summary := StatusSummaryFromTasks(nil, 0)

	if summary.Status() != document.IngestStatusPending {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusPending)
	}
}

func TestStatusSummaryFromTasks_Empty_WithPendingTasks(t *testing.T) {
	summary := StatusSummaryFromTasks(nil, 5)

	if summary.Status() != document.IngestStatusInProgress {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusInProgress)
	}
}

func TestStatusSummaryFromTasks_FailedTakesPriority(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateCompleted, now.Add(-time.Minute)),
		failedStatus("disk full", now),
		statusWithState(task.ReportingStateInProgress, now.Add(-2*time.Minute)),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusInProgress {
		t.Errorf("Status() = %v, want %v (in-progress work outranks failures)", summary.Status(), document.IngestStatusInProgress)
	}
}

func TestStatusSummaryFromTasks_FailedWhenAllTerminal(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		failedStatus("disk full", now),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusFailed {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusFailed)
	}
	if summary.Message() != "disk full" {
		t.Errorf("Message() = %q, want %q", summary.Message(), "disk full")
	}
}

func TestStatusSummaryFromTasks_CompletedWithErrors(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateCompleted, now.Add(-2*time.Minute)),
		statusWithState(task.ReportingStateCompleted, now.Add(-time.Minute)),
		failedStatus("one batch failed", now),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusCompletedWithErrors {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusCompletedWithErrors)
	}
	if summary.Message() != "one batch failed" {
		t.Errorf("Message() = %q, want %q", summary.Message(), "one batch failed")
	}
}

func TestStatusSummaryFromTasks_MostRecentFailedWins(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		failedStatus("old error", now.Add(-time.Hour)),
		failedStatus("recent error", now),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Message() != "recent error" {
		t.Errorf("Message() = %q, want %q", summary.Message(), "recent error")
	}
	if !summary.UpdatedAt().Equal(now) {
		t.Errorf("UpdatedAt() = %v, want %v", summary.UpdatedAt(), now)
	}
}

func TestStatusSummaryFromTasks_InProgressOverCompleted(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateCompleted, now.Add(-time.Minute)),
		statusWithState(task.ReportingStateInProgress, now),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusInProgress {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusInProgress)
	}
}

func TestStatusSummaryFromTasks_StartedCountsAsInProgress(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateStarted, now),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusInProgress {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusInProgress)
	}
}

func TestStatusSummaryFromTasks_PendingQueueOverridesTerminal(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateCompleted, now),
	}

	summary := StatusSummaryFromTasks(tasks, 3)

	if summary.Status() != document.IngestStatusInProgress {
		t.Errorf("Status() = %v, want %v (pending queue tasks should override)", summary.Status(), document.IngestStatusInProgress)
	}
}

func TestStatusSummaryFromTasks_AllCompleted(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateCompleted, now.Add(-time.Minute)),
		statusWithState(task.ReportingStateCompleted, now),
	}

	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusCompleted {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusCompleted)
	}
	if !summary.UpdatedAt().Equal(now) {
		t.Errorf("UpdatedAt() should reflect most recent completed task")
	}
}

func TestStatusSummaryFromTasks_AllSkipped(t *testing.T) {
	now := time.Now()
	tasks := []task.Status{
		statusWithState(task.ReportingStateSkipped, now),
	}

	// Skipped is terminal without failure, so it counts as completed work.
	summary := StatusSummaryFromTasks(tasks, 0)

	if summary.Status() != document.IngestStatusCompleted {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusCompleted)
	}
}

func TestDocumentStatusSummary_Accessors(t *testing.T) {
	now := time.Now()
	summary := NewDocumentStatusSummary(document.IngestStatusCompleted, "all done", now)

	if summary.Status() != document.IngestStatusCompleted {
		t.Errorf("Status() = %v, want %v", summary.Status(), document.IngestStatusCompleted)
	}
	if summary.Message() != "all done" {
		t.Errorf("Message() = %q, want %q", summary.Message(), "all done")
	}
	if !summary.UpdatedAt().Equal(now) {
		t.Errorf("UpdatedAt() = %v, want %v", summary.UpdatedAt(), now)
	}
}

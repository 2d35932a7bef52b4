package task

import (
	"strconv"
	"strings"
	"time"
)

// ReportingState represents the state of task reporting.
type ReportingState string

// ReportingState values.
const (
	ReportingStateStarted    ReportingState = "started"
	ReportingStateInProgress ReportingState = "in_progress"
	ReportingStateCompleted  ReportingState = "completed"
	ReportingStateFailed     ReportingState = "failed"
	ReportingStateSkipped    ReportingState = "skipped"
)

// IsTerminal reports whether the state is final.
func (s ReportingState) IsTerminal() bool {
	switch s {
	case ReportingStateCompleted, ReportingStateFailed, ReportingStateSkipped:
		return true
	}
	return false
}

// TrackableType identifies the kind of entity a status attaches to.
type TrackableType string

// TrackableType values.
const (
	TrackableTypeDocument TrackableType = "dokit.document"
)

// Status records the progress of one operation against one trackable
// entity. Values are immutable; transitions return updated copies.
type Status struct {
	id            string
	state         ReportingState
	operation     Operation
	message       string
	createdAt     time.Time
	updatedAt     time.Time
	total         int
	current       int
	errorMessage  string
	parent        *Status
	trackableID   int64
	trackableType TrackableType
}

// NewStatus creates a Status in the started state.
func NewStatus(
	operation Operation,
	parent *Status,
	trackableType TrackableType,
	trackableID int64,
) Status {
	now := time.Now().UTC()
	return Status{
		id:            statusID(operation, trackableType, trackableID),
		operation:     operation,
		parent:        parent,
		trackableType: trackableType,
		trackableID:   trackableID,
		state:         ReportingStateStarted,
		createdAt:     now,
		updatedAt:     now,
	}
}

// NewStatusFull reconstructs a persisted Status with all fields.
func NewStatusFull(
	id string,
	state ReportingState,
	operation Operation,
	message string,
	createdAt, updatedAt time.Time,
	total, current int,
	errorMessage string,
	parent *Status,
	trackableID int64,
	trackableType TrackableType,
) Status {
	return Status{
		id:            id,
		state:         state,
		operation:     operation,
		message:       message,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		total:         total,
		current:       current,
		errorMessage:  errorMessage,
		parent:        parent,
		trackableID:   trackableID,
		trackableType: trackableType,
	}
}

// ID returns the status ID.
func (s Status) ID() string { return s.id }

// State returns the current state.
func (s Status) State() ReportingState { return s.state }

// Operation returns the tracked operation.
func (s Status) Operation() Operation { return s.operation }

// Message returns the status message.
func (s Status) Message() string { return s.message }

// CreatedAt returns when the status was created.
func (s Status) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the status was last updated.
func (s Status) UpdatedAt() time.Time { return s.updatedAt }

// Total returns the expected number of progress steps.
func (s Status) Total() int { return s.total }

// Current returns the completed number of progress steps.
func (s Status) Current() int { return s.current }

// Error returns the error message for a failed status.
func (s Status) Error() string { return s.errorMessage }

// Parent returns the parent status, if any.
func (s Status) Parent() *Status { return s.parent }

// TrackableID returns the tracked entity ID.
func (s Status) TrackableID() int64 { return s.trackableID }

// TrackableType returns the tracked entity type.
func (s Status) TrackableType() TrackableType { return s.trackableType }

// CompletionPercent returns progress as a percentage clamped to [0, 100].
// A zero total reports zero.
func (s Status) CompletionPercent() float64 {
	if s.total == 0 {
		return 0.0
	}
	percent := float64(s.current) / float64(s.total) * 100.0
	return min(100.0, max(0.0, percent))
}

// SetTotal records the expected number of progress steps.
func (s Status) SetTotal(total int) Status {
	s.total = total
	s.updatedAt = time.Now().UTC()
	return s
}

// SetCurrent records progress, moving to in_progress. An empty message
// leaves the previous one in place.
func (s Status) SetCurrent(current int, message string) Status {
	s.state = ReportingStateInProgress
	s.current = current
	if message != "" {
		s.message = message
	}
	s.updatedAt = time.Now().UTC()
	return s
}

// Skip marks the task as skipped with the given message.
func (s Status) Skip(message string) Status {
	s.state = ReportingStateSkipped
	s.message = message
	s.updatedAt = time.Now().UTC()
	return s
}

// Fail marks the task as failed with the given error message.
func (s Status) Fail(errorMsg string) Status {
	s.state = ReportingStateFailed
	s.errorMessage = errorMsg
	s.updatedAt = time.Now().UTC()
	return s
}

// Complete marks the task as completed and snaps progress to 100%.
// Terminal states are left untouched.
func (s Status) Complete() Status {
	if s.state.IsTerminal() {
		return s
	}
	s.state = ReportingStateCompleted
	s.current = s.total
	s.updatedAt = time.Now().UTC()
	return s
}

// statusID builds "{trackable_type}-{trackable_id}-{operation}", leaving
// out empty parts.
func statusID(operation Operation, trackableType TrackableType, trackableID int64) string {
	var parts []string
	if trackableType != "" {
		parts = append(parts, string(trackableType))
	}
	if trackableID != 0 {
		parts = append(parts, strconv.FormatInt(trackableID, 10))
	}
	parts = append(parts, string(operation))
	return strings.Join(parts, "-")
}

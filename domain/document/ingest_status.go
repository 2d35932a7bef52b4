package document

// IngestStatus represents the aggregate ingestion state of a document,
// derived from its task statuses.
type IngestStatus string

// IngestStatus values.
const (
	IngestStatusPending             IngestStatus = "pending"
	IngestStatusInProgress          IngestStatus = "in_progress"
	IngestStatusCompleted           IngestStatus = "completed"
	IngestStatusCompletedWithErrors IngestStatus = "completed_with_errors"
	IngestStatusFailed              IngestStatus = "failed"
)

// IsTerminal returns true if the status represents finished work.
func (s IngestStatus) IsTerminal() bool {
	return s == IngestStatusCompleted ||
		s == IngestStatusCompletedWithErrors ||
		s == IngestStatusFailed
}

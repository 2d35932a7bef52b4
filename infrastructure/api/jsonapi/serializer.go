package jsonapi

import (
	"fmt"
	"time"

	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/domain/tracking"
)

// DocumentAttributes represents document attributes in JSON:API format.
type DocumentAttributes struct {
	Filename            string     `json:"filename"`
	MediaType           string     `json:"media_type"`
	SizeBytes           int64      `json:"size_bytes"`
	StoragePath         string     `json:"storage_path,omitempty"`
	PageCount           int        `json:"page_count"`
	EmbeddingsGenerated bool       `json:"embeddings_generated"`
	SessionID           string     `json:"session_id,omitempty"`
	Global              bool       `json:"global"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// TaskAttributes represents task attributes in JSON:API format.
type TaskAttributes struct {
	Type      string     `json:"type"`
	Priority  int        `json:"priority"`
	Payload   any        `json:"payload"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TaskStatusAttributes represents task status attributes in JSON:API format.
type TaskStatusAttributes struct {
	Step      string     `json:"step"`
	State     string     `json:"state"`
	Progress  float64    `json:"progress"`
	Total     int        `json:"total"`
	Current   int        `json:"current"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Error     string     `json:"error"`
	Message   string     `json:"message"`
}

// StatusSummaryAttributes represents status summary attributes in JSON:API format.
type StatusSummaryAttributes struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Serializer converts domain objects to JSON:API resources.
type Serializer struct{}

// NewSerializer creates a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// DocumentResource converts a document to a JSON:API resource.
func (s *Serializer) DocumentResource(doc document.Document) *Resource {
	createdAt := doc.CreatedAt()
	updatedAt := doc.UpdatedAt()

	attrs := &DocumentAttributes{
		Filename:            doc.Filename(),
		MediaType:           doc.MediaType(),
		SizeBytes:           doc.SizeBytes(),
		StoragePath:         doc.StoragePath(),
		PageCount:           doc.PageCount(),
		EmbeddingsGenerated: doc.EmbeddingsGenerated(),
		SessionID:           doc.SessionID(),
		Global:              doc.Global(),
		CreatedAt:           &createdAt,
		UpdatedAt:           &updatedAt,
	}
	return NewResource("document", fmt.Sprintf("%d", doc.ID()), attrs)
}

// DocumentResources converts multiple documents to JSON:API resources.
func (s *Serializer) DocumentResources(docs []document.Document) []*Resource {
	resources := make([]*Resource, len(docs))
	for i, doc := range docs {
		resources[i] = s.DocumentResource(doc)
	}
	return resources
}

// TaskResource converts a task to a JSON:API resource.
func (s *Serializer) TaskResource(t task.Task) *Resource {
	createdAt := t.CreatedAt()
	updatedAt := t.UpdatedAt()

	attrs := &TaskAttributes{
		Type:      string(t.Operation()),
		Priority:  t.Priority(),
		Payload:   t.Payload(),
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}
	return NewResource("task", fmt.Sprintf("%d", t.ID()), attrs)
}

// TaskResources converts multiple tasks to JSON:API resources.
func (s *Serializer) TaskResources(tasks []task.Task) []*Resource {
	resources := make([]*Resource, len(tasks))
	for i, t := range tasks {
		resources[i] = s.TaskResource(t)
	}
	return resources
}

// TaskStatusResource converts a task status to a JSON:API resource.
func (s *Serializer) TaskStatusResource(status task.Status) *Resource {
	createdAt := status.CreatedAt()
	updatedAt := status.UpdatedAt()

	attrs := &TaskStatusAttributes{
		Step:      string(status.Operation()),
		State:     string(status.State()),
		Progress:  status.CompletionPercent(),
		Total:     status.Total(),
		Current:   status.Current(),
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
		Error:     status.Error(),
		Message:   status.Message(),
	}
	return NewResource("task_status", status.ID(), attrs)
}

// TaskStatusResources converts multiple statuses to JSON:API resources.
func (s *Serializer) TaskStatusResources(statuses []task.Status) []*Resource {
	resources := make([]*Resource, len(statuses))
	for i, status := range statuses {
		resources[i] = s.TaskStatusResource(status)
	}
	return resources
}

// StatusSummaryResource converts a status summary to a JSON:API resource.
func (s *Serializer) StatusSummaryResource(documentID int64, summary tracking.DocumentStatusSummary) *Resource {
	attrs := &StatusSummaryAttributes{
		Status:    string(summary.Status()),
		Message:   summary.Message(),
		UpdatedAt: summary.UpdatedAt(),
	}
	return NewResource("document_status_summary", fmt.Sprintf("%d", documentID), attrs)
}

package dto

import "github.com/helixml/dokit/infrastructure/api/jsonapi"

// DocumentCreateRequest is the JSON body for registering a document.
// Content carries base64-encoded bytes; StoragePath references a blob
// that already exists in the store.
type DocumentCreateRequest struct {
	Filename    string `json:"filename"`
	MediaType   string `json:"media_type,omitempty"`
	Content     string `json:"content,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Global      bool   `json:"global,omitempty"`
}

// DocumentResponse wraps a single document resource.
type DocumentResponse struct {
	Data *jsonapi.Resource `json:"data"`
}

// DocumentListResponse wraps a document list with pagination meta.
type DocumentListResponse struct {
	Data  []*jsonapi.Resource `json:"data"`
	Meta  *jsonapi.Meta       `json:"meta,omitempty"`
	Links *jsonapi.Links      `json:"links,omitempty"`
}

// DocumentCreatedResponse is returned on 202 Accepted: the stored document
// plus the queued ingestion tasks.
type DocumentCreatedResponse struct {
	Data  *jsonapi.Resource   `json:"data"`
	Tasks []*jsonapi.Resource `json:"tasks,omitempty"`
}

// TaskStatusListResponse wraps per-operation ingestion statuses.
type TaskStatusListResponse struct {
	Data []*jsonapi.Resource `json:"data"`
}

// StatusSummaryResponse wraps the rolled-up ingestion status.
type StatusSummaryResponse struct {
	Data *jsonapi.Resource `json:"data"`
}

// TaskResponse wraps a single queued task resource.
type TaskResponse struct {
	Data *jsonapi.Resource `json:"data"`
}

// TaskListResponse wraps a queued task list.
type TaskListResponse struct {
	Data []*jsonapi.Resource `json:"data"`
}

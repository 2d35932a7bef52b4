package e2e_test

import (
	"fmt"
	"strconv"
	"testing"
)

// Typed decode targets for the JSON:API responses the tests assert on.
// The server serializes attributes as `any`, so each test-side resource
// declares the attribute fields it cares about.

type documentAttributes struct {
	Filename            string `json:"filename"`
	MediaType           string `json:"media_type"`
	SizeBytes           int64  `json:"size_bytes"`
	StoragePath         string `json:"storage_path"`
	PageCount           int    `json:"page_count"`
	EmbeddingsGenerated bool   `json:"embeddings_generated"`
	SessionID           string `json:"session_id"`
	Global              bool   `json:"global"`
}

type documentResource struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Attributes documentAttributes `json:"attributes"`
}

// IDValue parses the resource ID as an int64.
func (r documentResource) IDValue(t *testing.T) int64 {
	t.Helper()
	id, err := strconv.ParseInt(r.ID, 10, 64)
	if err != nil {
		t.Fatalf("parse resource id %q: %v", r.ID, err)
	}
	return id
}

type documentResponse struct {
	Data documentResource `json:"data"`
}

type documentListResponse struct {
	Data []documentResource `json:"data"`
	Meta map[string]any     `json:"meta"`
}

type taskAttributes struct {
	Type     string `json:"type"`
	Priority int    `json:"priority"`
}

type taskResource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes taskAttributes `json:"attributes"`
}

type taskResponse struct {
	Data taskResource `json:"data"`
}

type taskListResponse struct {
	Data []taskResource `json:"data"`
}

type documentCreatedResponse struct {
	Data  documentResource `json:"data"`
	Tasks []taskResource   `json:"tasks"`
}

type statusAttributes struct {
	Step  string `json:"step"`
	State string `json:"state"`
}

type statusResource struct {
	Type       string           `json:"type"`
	ID         string           `json:"id"`
	Attributes statusAttributes `json:"attributes"`
}

type statusListResponse struct {
	Data []statusResource `json:"data"`
}

type statusSummaryResponse struct {
	Data struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"attributes"`
	} `json:"data"`
}

type ingestionResponse struct {
	Success       bool `json:"success"`
	ChunksCreated int  `json:"chunks_created"`
	PageCount     int  `json:"page_count"`
	TextLength    int  `json:"text_length"`
}

type searchResult struct {
	DocumentID   int64   `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

type searchResponse struct {
	Results     []searchResult `json:"results"`
	Query       string         `json:"query"`
	TotalChunks int            `json:"total_chunks"`
	Message     string         `json:"message"`
}

func documentPath(id int64) string {
	return fmt.Sprintf("/api/v1/documents/%d", id)
}

func statusSummaryPath(id int64) string {
	return fmt.Sprintf("/api/v1/documents/%d/status/summary", id)
}

// Package dto defines the request and response shapes of the v1 API.
package dto

// SearchRequest is the body for POST /api/v1/search.
type SearchRequest struct {
	Query   string `json:"query"`
	ScopeID string `json:"scope_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// SearchResultData is a single scored snippet in a search response.
type SearchResultData struct {
	DocumentID   int64   `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

// SearchResponse is the response body for search requests.
// Message is set when no results clear the score threshold.
type SearchResponse struct {
	Results     []SearchResultData `json:"results"`
	Query       string             `json:"query"`
	TotalChunks int                `json:"total_chunks"`
	Message     string             `json:"message,omitempty"`
}

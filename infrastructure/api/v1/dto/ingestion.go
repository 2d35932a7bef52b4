package dto

// IngestionRequest is the body for POST /api/v1/ingestion.
type IngestionRequest struct {
	DocumentID int64 `json:"document_id"`

	// Legacy field names accepted during migration.
	// Deprecated: use DocumentID. StoragePath is ignored; the document
	// record already carries its storage path.
	LegacyDocumentID  int64  `json:"documentId,omitempty"`
	LegacyStoragePath string `json:"storagePath,omitempty"`
}

// ResolvedDocumentID returns the document ID, falling back to the legacy
// field when the canonical one is unset.
func (r IngestionRequest) ResolvedDocumentID() int64 {
	if r.DocumentID != 0 {
		return r.DocumentID
	}
	return r.LegacyDocumentID
}

// IngestionResponse is the response body for a completed ingestion run.
type IngestionResponse struct {
	Success       bool `json:"success"`
	ChunksCreated int  `json:"chunks_created"`
	PageCount     int  `json:"page_count"`
	TextLength    int  `json:"text_length"`
}

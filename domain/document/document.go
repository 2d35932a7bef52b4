// Package document provides the document aggregate: an uploaded file that
// moves through text extraction, chunking, and embedding before it becomes
// searchable.
package document

import (
	"errors"
	"strings"
	"time"
)

// Common media types handled by the ingestion pipeline.
const (
	MediaTypePlainText = "text/plain"
	MediaTypeMarkdown  = "text/markdown"
	MediaTypePDF       = "application/pdf"
)

// ErrEmptyFilename indicates a document was created without a filename.
var ErrEmptyFilename = errors.New("document requires a filename")

// Document represents a registered document and its extraction state.
// Documents are immutable; lifecycle transitions return modified copies.
type Document struct {
	id                  int64
	filename            string
	mediaType           string
	sizeBytes           int64
	storagePath         string
	extractedText       string
	pageCount           int
	embeddingsGenerated bool
	sessionID           string
	global              bool
	createdAt           time.Time
	updatedAt           time.Time
}

// NewDocument creates a Document pending ingestion. The media type is
// guessed from the filename extension when empty.
func NewDocument(filename, mediaType, storagePath string, sizeBytes int64) (Document, error) {
	if strings.TrimSpace(filename) == "" {
		return Document{}, ErrEmptyFilename
	}
	if mediaType == "" {
		mediaType = GuessMediaType(filename)
	}
	return Document{
		filename:    filename,
		mediaType:   mediaType,
		sizeBytes:   sizeBytes,
		storagePath: storagePath,
	}, nil
}

// ReconstructDocument creates a Document with all fields (used by stores).
func ReconstructDocument(
	id int64,
	filename, mediaType string,
	sizeBytes int64,
	storagePath, extractedText string,
	pageCount int,
	embeddingsGenerated bool,
	sessionID string,
	global bool,
	createdAt, updatedAt time.Time,
) Document {
	return Document{
		id:                  id,
		filename:            filename,
		mediaType:           mediaType,
		sizeBytes:           sizeBytes,
		storagePath:         storagePath,
		extractedText:       extractedText,
		pageCount:           pageCount,
		embeddingsGenerated: embeddingsGenerated,
		sessionID:           sessionID,
		global:              global,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// ID returns the document ID.
func (d Document) ID() int64 { return d.id }

// Filename returns the original filename.
func (d Document) Filename() string { return d.filename }

// MediaType returns the document media type.
func (d Document) MediaType() string { return d.mediaType }

// SizeBytes returns the stored blob size in bytes.
func (d Document) SizeBytes() int64 { return d.sizeBytes }

// StoragePath returns the blob store key for the raw document bytes.
func (d Document) StoragePath() string { return d.storagePath }

// ExtractedText returns the extracted plain text, empty until ingestion
// has run.
func (d Document) ExtractedText() string { return d.extractedText }

// PageCount returns the extracted page count, zero until ingestion has run.
func (d Document) PageCount() int { return d.pageCount }

// EmbeddingsGenerated reports whether the document's chunks have embeddings
// and the document is searchable.
func (d Document) EmbeddingsGenerated() bool { return d.embeddingsGenerated }

// SessionID returns the owning session scope, empty when unscoped.
func (d Document) SessionID() string { return d.sessionID }

// Global reports whether the document is visible to every session scope.
func (d Document) Global() bool { return d.global }

// CreatedAt returns when the document was registered.
func (d Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns when the document was last modified.
func (d Document) UpdatedAt() time.Time { return d.updatedAt }

// WithScope returns a copy scoped to the given session. A global document
// stays visible to every scope regardless of session.
func (d Document) WithScope(sessionID string, global bool) Document {
	d.sessionID = sessionID
	d.global = global
	return d
}

// WithExtraction returns a copy carrying the extraction output. Any prior
// embeddings flag is cleared because extracted text feeding the chunks has
// changed.
func (d Document) WithExtraction(text string, pageCount int) Document {
	d.extractedText = text
	d.pageCount = pageCount
	d.embeddingsGenerated = false
	return d
}

// WithEmbeddingsGenerated returns a copy with the searchable flag set.
func (d Document) WithEmbeddingsGenerated() Document {
	d.embeddingsGenerated = true
	return d
}

// WithStoragePath returns a copy with the blob storage path set.
func (d Document) WithStoragePath(path string) Document {
	d.storagePath = path
	return d
}

// VisibleTo reports whether the document is searchable within the given
// scope. An empty scope sees every ready document.
func (d Document) VisibleTo(sessionID string) bool {
	if sessionID == "" {
		return true
	}
	return d.global || d.sessionID == sessionID
}

// GuessMediaType maps a filename extension to a media type, defaulting to
// plain text for anything unrecognized.
func GuessMediaType(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return MediaTypePlainText
	}
	switch strings.ToLower(filename[idx:]) {
	case ".pdf":
		return MediaTypePDF
	case ".md", ".markdown":
		return MediaTypeMarkdown
	default:
		return MediaTypePlainText
	}
}

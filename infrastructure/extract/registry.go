// Package extract turns stored document bytes into plain text for the
// ingestion pipeline. Extractors are selected by media type; unknown types
// fall back to plain text decoding.
package extract

import (
	"context"
	"mime"
	"strings"

	"github.com/helixml/dokit/domain/service"
)

// Media types the default registry wiring knows about.
const (
	MediaTypePlain    = "text/plain"
	MediaTypeMarkdown = "text/markdown"
	MediaTypePDF      = "application/pdf"
)

// Registry dispatches text extraction by media type.
type Registry struct {
	extractors map[string]service.TextExtractor
	fallback   service.TextExtractor
}

// NewRegistry creates a registry with the default wiring: plain text for
// text types, the given extractor for application/pdf.
func NewRegistry(pdf service.TextExtractor) *Registry {
	plain := NewPlainTextExtractor()
	return &Registry{
		extractors: map[string]service.TextExtractor{
			MediaTypePlain:    plain,
			MediaTypeMarkdown: plain,
			MediaTypePDF:      pdf,
		},
		fallback: plain,
	}
}

// Register adds or replaces the extractor for a media type.
func (r *Registry) Register(mediaType string, e service.TextExtractor) {
	r.extractors[normalizeMediaType(mediaType)] = e
}

// Extract runs the extractor registered for mediaType over data. Unknown
// media types are treated as plain text.
func (r *Registry) Extract(ctx context.Context, mediaType string, data []byte) (service.Extraction, error) {
	if e, ok := r.extractors[normalizeMediaType(mediaType)]; ok {
		return e.Extract(ctx, data)
	}
	return r.fallback.Extract(ctx, data)
}

// normalizeMediaType lowercases the type and strips parameters such as
// charset.
func normalizeMediaType(mediaType string) string {
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

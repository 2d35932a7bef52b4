package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/helixml/dokit/domain/service"
)

// PlainTextExtractor decodes document bytes as UTF-8 text.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract returns the bytes as text with a page count of 1. Invalid UTF-8
// sequences are replaced with the replacement rune rather than rejected.
func (e *PlainTextExtractor) Extract(_ context.Context, data []byte) (service.Extraction, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return service.NewExtraction(text, 1), nil
}

var _ service.TextExtractor = (*PlainTextExtractor)(nil)

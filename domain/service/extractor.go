// Package service provides domain service interfaces.
package service

import "context"

// Extraction holds the text pulled out of a stored document.
type Extraction struct {
	text      string
	pageCount int
}

// NewExtraction creates a new Extraction. Page counts below 1 are
// clamped to 1 so downstream page estimates stay well-defined.
func NewExtraction(text string, pageCount int) Extraction {
	if pageCount < 1 {
		pageCount = 1
	}
	return Extraction{
		text:      text,
		pageCount: pageCount,
	}
}

// Text returns the extracted text.
func (e Extraction) Text() string { return e.text }

// PageCount returns the number of pages in the source document.
func (e Extraction) PageCount() int { return e.pageCount }

// TextExtractor pulls raw text and a page count out of document bytes.
// Implementations are selected per media type; best-effort extractors
// return a placeholder rather than an error when no text is found.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (Extraction, error)
}

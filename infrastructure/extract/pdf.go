package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/helixml/dokit/domain/service"
)

// PDFPlaceholder is stored in place of extracted text when a PDF yields
// nothing readable.
const PDFPlaceholder = "[PDF document - text extraction not available. The document may be image-based or encrypted.]"

var (
	// A parenthesized string literal anywhere in the stream, or a bracketed
	// show-array immediately followed by a TJ operator. Literals inside a
	// matched array are not re-matched on their own.
	pdfLiteralPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)|\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)

	pdfParenPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

	// /Type /Page marks a page object; the trailing group catches the
	// plural form so /Type /Pages nodes are not counted.
	pdfPagePattern = regexp.MustCompile(`/Type\s*/Page(s?)`)

	whitespaceRunPattern = regexp.MustCompile(`\s+`)
	caseBoundaryPattern  = regexp.MustCompile(`([a-z])([A-Z])`)
)

// HeuristicPDFExtractor scrapes text out of a PDF byte stream without
// parsing it. It collects string literals in scan order and repairs the
// most common spacing damage. Encrypted or compressed-stream PDFs defeat
// it; those degrade to PDFPlaceholder rather than an error.
type HeuristicPDFExtractor struct{}

// NewHeuristicPDFExtractor creates a heuristic PDF extractor.
func NewHeuristicPDFExtractor() *HeuristicPDFExtractor {
	return &HeuristicPDFExtractor{}
}

// Extract scans data for text literals and page markers. It never fails on
// malformed content.
func (e *HeuristicPDFExtractor) Extract(_ context.Context, data []byte) (service.Extraction, error) {
	raw := string(data)

	var parts []string
	for _, m := range pdfLiteralPattern.FindAllStringSubmatchIndex(raw, -1) {
		if m[2] >= 0 {
			// Parenthesized literal.
			if t := unescapePDFLiteral(raw[m[2]:m[3]]); strings.TrimSpace(t) != "" {
				parts = append(parts, t)
			}
			continue
		}
		// Show array: concatenate its inner literals directly, dropping the
		// kerning offsets between them.
		var run strings.Builder
		for _, inner := range pdfParenPattern.FindAllStringSubmatch(raw[m[4]:m[5]], -1) {
			run.WriteString(unescapePDFLiteral(inner[1]))
		}
		if t := run.String(); strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}

	text := strings.Join(parts, " ")
	text = whitespaceRunPattern.ReplaceAllString(text, " ")
	text = caseBoundaryPattern.ReplaceAllString(text, "$1 $2")
	text = strings.TrimSpace(text)
	if text == "" {
		text = PDFPlaceholder
	}

	return service.NewExtraction(text, countPDFPages(raw)), nil
}

// countPDFPages counts page object markers, defaulting to 1 when none are
// found.
func countPDFPages(raw string) int {
	count := 0
	for _, m := range pdfPagePattern.FindAllStringSubmatch(raw, -1) {
		if m[1] == "" {
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count
}

// unescapePDFLiteral resolves the escape sequences PDF string literals can
// carry for parentheses, backslashes, and line breaks. Unknown escapes are
// kept verbatim.
func unescapePDFLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '(', ')', '\\':
			b.WriteByte(s[i])
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

var _ service.TextExtractor = (*HeuristicPDFExtractor)(nil)

// Package chunking splits extracted document text into overlapping
// fixed-size windows for embedding and retrieval.
package chunking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ChunkParams configures the chunking algorithm. Sizes are measured in
// runes (Unicode code points).
type ChunkParams struct {
	Size    int
	Overlap int
	MinSize int
}

// DefaultChunkParams returns sensible defaults for document text.
func DefaultChunkParams() ChunkParams {
	return ChunkParams{
		Size:    1000,
		Overlap: 200,
		MinSize: 50,
	}
}

// Chunk represents a single text window with its sequence index and
// estimated page number in the source document.
type Chunk struct {
	content      string
	index        int
	pageEstimate int
}

// Content returns the chunk text.
func (c Chunk) Content() string { return c.content }

// Index returns the chunk's 0-based position in document order.
func (c Chunk) Index() int { return c.index }

// PageEstimate returns the estimated 1-based page number.
func (c Chunk) PageEstimate() int { return c.pageEstimate }

// TextChunks holds the result of splitting content into windows.
type TextChunks struct {
	chunks []Chunk
}

// pageMarkerPattern matches an inline "page N" marker in chunk text.
var pageMarkerPattern = regexp.MustCompile(`(?i)page\s+(\d{1,5})`)

// NewTextChunks splits content into overlapping windows of up to
// params.Size runes, preferring sentence or line boundaries.
//
// Each window takes up to Size runes. When the window ends before the
// text does, the split point moves back to the last period or newline
// inside the window, provided that boundary lies past the window's
// halfway point. The cursor then advances by (chunkLength - Overlap);
// a non-positive advance falls back to the full chunk length so the
// cursor always moves forward. Chunks whose trimmed text is shorter
// than MinSize runes are dropped.
//
// pageCount is the document's total page count, used to derive each
// chunk's page estimate.
func NewTextChunks(content string, params ChunkParams, pageCount int) (TextChunks, error) {
	if params.Size <= 0 {
		return TextChunks{}, fmt.Errorf("chunk size must be positive, got %d", params.Size)
	}
	if params.Overlap < 0 {
		return TextChunks{}, fmt.Errorf("overlap must be non-negative, got %d", params.Overlap)
	}

	texts := splitWindows(content, params)

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			content:      text,
			index:        i,
			pageEstimate: estimatePage(text, i, len(texts), pageCount),
		}
	}
	return TextChunks{chunks: chunks}, nil
}

// splitWindows advances a cursor through the text, emitting trimmed
// windows that survive the MinSize filter.
func splitWindows(content string, params ChunkParams) []string {
	runes := []rune(content)
	var texts []string

	for start := 0; start < len(runes); {
		end := start + params.Size
		if end > len(runes) {
			end = len(runes)
		}
		window := runes[start:end]

		// Prefer a sentence or line boundary when the window stops
		// mid-text and a boundary exists past the halfway point.
		if end < len(runes) {
			if bp := lastBoundary(window); bp > len(window)/2 {
				window = window[:bp+1]
			}
		}

		chunkLen := len(window)
		if text := strings.TrimSpace(string(window)); len([]rune(text)) >= params.MinSize {
			texts = append(texts, text)
		}

		advance := chunkLen - params.Overlap
		if advance <= 0 {
			advance = chunkLen
		}
		start += advance
	}

	return texts
}

// lastBoundary returns the index of the last period or newline in the
// window, or -1 when neither occurs.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}

// estimatePage derives a 1-based page number for a chunk: parsed from an
// inline "page N" marker in the chunk's own text when present, otherwise
// interpolated proportionally from the chunk's position among all chunks.
func estimatePage(text string, index, total, pageCount int) int {
	if m := pageMarkerPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			return n
		}
	}
	if pageCount < 1 {
		pageCount = 1
	}
	if total <= 1 || pageCount == 1 {
		return 1
	}
	return 1 + (index*(pageCount-1))/(total-1)
}

// All returns all chunks in document order.
func (t TextChunks) All() []Chunk { return t.chunks }

// Texts returns just the chunk contents in document order.
func (t TextChunks) Texts() []string {
	texts := make([]string, len(t.chunks))
	for i, c := range t.chunks {
		texts[i] = c.content
	}
	return texts
}

package document_test

import (
	"testing"

	"github.com/helixml/dokit/domain/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc, err := document.NewDocument("report.pdf", "", "blobs/abc", 1024)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", doc.Filename())
	assert.Equal(t, document.MediaTypePDF, doc.MediaType())
	assert.Equal(t, int64(1024), doc.SizeBytes())
	assert.Equal(t, "blobs/abc", doc.StoragePath())
	assert.False(t, doc.EmbeddingsGenerated())
	assert.Zero(t, doc.PageCount())
}

func TestNewDocumentRequiresFilename(t *testing.T) {
	_, err := document.NewDocument("   ", "", "", 0)
	assert.ErrorIs(t, err, document.ErrEmptyFilename)
}

func TestGuessMediaType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"notes.txt", document.MediaTypePlainText},
		{"README.md", document.MediaTypeMarkdown},
		{"manual.PDF", document.MediaTypePDF},
		{"no-extension", document.MediaTypePlainText},
		{"archive.tar.pdf", document.MediaTypePDF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, document.GuessMediaType(tt.filename), tt.filename)
	}
}

func TestWithExtractionClearsEmbeddingsFlag(t *testing.T) {
	doc, err := document.NewDocument("a.txt", "", "blobs/a", 10)
	require.NoError(t, err)

	doc = doc.WithExtraction("hello world", 1).WithEmbeddingsGenerated()
	require.True(t, doc.EmbeddingsGenerated())

	doc = doc.WithExtraction("hello again", 2)
	assert.False(t, doc.EmbeddingsGenerated())
	assert.Equal(t, "hello again", doc.ExtractedText())
	assert.Equal(t, 2, doc.PageCount())
}

func TestVisibleTo(t *testing.T) {
	doc, err := document.NewDocument("a.txt", "", "", 0)
	require.NoError(t, err)

	scoped := doc.WithScope("session-1", false)
	assert.True(t, scoped.VisibleTo("session-1"))
	assert.False(t, scoped.VisibleTo("session-2"))
	assert.True(t, scoped.VisibleTo(""))

	global := doc.WithScope("session-1", true)
	assert.True(t, global.VisibleTo("session-2"))
}

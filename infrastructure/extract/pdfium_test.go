package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPdfiumExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPdfiumExtractor(NewHeuristicPDFExtractor()).Extract(ctx, []byte("%PDF-1.4"))
	require.Error(t, err)
}

func TestPdfiumExtractor_FallsBackOnUnparseableInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping: initializes the pdfium WebAssembly runtime")
	}

	ext, err := NewPdfiumExtractor(stubExtractor{text: "fallback text", pages: 1}).
		Extract(context.Background(), []byte("definitely not a pdf"))
	require.NoError(t, err)
	assert.Equal(t, "fallback text", ext.Text())
}

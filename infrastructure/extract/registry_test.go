package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/dokit/domain/service"
)

type stubExtractor struct {
	text  string
	pages int
}

func (s stubExtractor) Extract(_ context.Context, _ []byte) (service.Extraction, error) {
	return service.NewExtraction(s.text, s.pages), nil
}

func TestRegistry_PlainText(t *testing.T) {
	reg := NewRegistry(NewHeuristicPDFExtractor())

	ext, err := reg.Extract(context.Background(), MediaTypePlain, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", ext.Text())
	assert.Equal(t, 1, ext.PageCount())
}

func TestRegistry_Markdown(t *testing.T) {
	reg := NewRegistry(NewHeuristicPDFExtractor())

	ext, err := reg.Extract(context.Background(), MediaTypeMarkdown, []byte("# Title"))
	require.NoError(t, err)
	assert.Equal(t, "# Title", ext.Text())
}

func TestRegistry_PDF(t *testing.T) {
	reg := NewRegistry(NewHeuristicPDFExtractor())

	ext, err := reg.Extract(context.Background(), MediaTypePDF, []byte("BT (From PDF) Tj ET"))
	require.NoError(t, err)
	assert.Equal(t, "From PDF", ext.Text())
}

func TestRegistry_UnknownTypeFallsBackToPlain(t *testing.T) {
	reg := NewRegistry(NewHeuristicPDFExtractor())

	ext, err := reg.Extract(context.Background(), "application/json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, ext.Text())
}

func TestRegistry_MediaTypeParameters(t *testing.T) {
	reg := NewRegistry(NewHeuristicPDFExtractor())

	ext, err := reg.Extract(context.Background(), "text/plain; charset=utf-8", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", ext.Text())
}

func TestRegistry_MediaTypeCaseInsensitive(t *testing.T) {
	reg := NewRegistry(stubExtractor{text: "pdf path", pages: 4})

	ext, err := reg.Extract(context.Background(), "Application/PDF", []byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "pdf path", ext.Text())
	assert.Equal(t, 4, ext.PageCount())
}

func TestRegistry_RegisterOverride(t *testing.T) {
	reg := NewRegistry(NewHeuristicPDFExtractor())
	reg.Register("application/x-custom", stubExtractor{text: "custom", pages: 2})

	ext, err := reg.Extract(context.Background(), "application/x-custom", []byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "custom", ext.Text())
	assert.Equal(t, 2, ext.PageCount())
}

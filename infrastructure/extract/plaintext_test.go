package extract

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextExtractor(t *testing.T) {
	ext, err := NewPlainTextExtractor().Extract(context.Background(), []byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "hello world", ext.Text())
	assert.Equal(t, 1, ext.PageCount())
}

func TestPlainTextExtractor_Empty(t *testing.T) {
	ext, err := NewPlainTextExtractor().Extract(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "", ext.Text())
	assert.Equal(t, 1, ext.PageCount())
}

func TestPlainTextExtractor_InvalidUTF8(t *testing.T) {
	ext, err := NewPlainTextExtractor().Extract(context.Background(), []byte{'h', 'i', 0xff})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(ext.Text()))
	assert.Contains(t, ext.Text(), "hi")
}

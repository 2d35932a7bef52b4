package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newCachingTransport(t *testing.T, inner http.RoundTripper) *CachingTransport {
	t.Helper()
	transport, err := NewCachingTransport(t.TempDir(), inner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })
	return transport
}

func doRoundTrip(t *testing.T, rt http.RoundTripper, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCachingTransport_ServesRepeatsFromCache(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	transport := newCachingTransport(t, srv.Client().Transport)

	for i := range 3 {
		resp := doRoundTrip(t, transport, srv.URL+"/v1/embeddings", `{"input":"hello"}`)
		require.Equal(t, `{"result":"ok"}`, readBody(t, resp), "request %d", i)
	}
	require.Equal(t, int32(1), count.Load(), "repeats must not reach upstream")
}

func TestCachingTransport_KeyIncludesBody(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	transport := newCachingTransport(t, srv.Client().Transport)

	first := doRoundTrip(t, transport, srv.URL+"/v1/embeddings", `{"input":"hello"}`)
	second := doRoundTrip(t, transport, srv.URL+"/v1/embeddings", `{"input":"world"}`)

	require.Equal(t, `{"input":"hello"}`, readBody(t, first))
	require.Equal(t, `{"input":"world"}`, readBody(t, second))
	require.Equal(t, int32(2), count.Load(), "distinct bodies are distinct cache keys")
}

func TestCacheKey(t *testing.T) {
	url := "http://example.com/v1/embeddings"

	require.Equal(t,
		cacheKey(http.MethodPost, url, []byte("body")),
		cacheKey(http.MethodPost, url, []byte("body")),
		"same request, same key")
	require.NotEqual(t,
		cacheKey(http.MethodGet, url, nil),
		cacheKey(http.MethodPost, url, nil),
		"method is part of the key")
}

func TestCachingTransport_PreservesHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Custom", "test-value")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	transport := newCachingTransport(t, srv.Client().Transport)

	doRoundTrip(t, transport, srv.URL+"/api", "body")
	cached := doRoundTrip(t, transport, srv.URL+"/api", "body")

	require.Equal(t, http.StatusOK, cached.StatusCode)
	require.Equal(t, "application/json", cached.Header.Get("Content-Type"))
	require.Equal(t, "test-value", cached.Header.Get("X-Custom"))
}

func TestCachingTransport_InnerError(t *testing.T) {
	inner := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, http.ErrServerClosed
	})
	transport := newCachingTransport(t, inner)

	req, err := http.NewRequest(http.MethodPost, "http://localhost/api", strings.NewReader("body"))
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.ErrorIs(t, err, http.ErrServerClosed)
}

func TestCachingTransport_ErrorsNotCached(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"fail"}`))
	}))
	t.Cleanup(srv.Close)

	transport := newCachingTransport(t, srv.Client().Transport)

	doRoundTrip(t, transport, srv.URL+"/api", "body")
	doRoundTrip(t, transport, srv.URL+"/api", "body")

	require.Equal(t, int32(2), count.Load(), "500s must be fetched every time")
}

func TestCachingTransport_CorruptEntryFallsThrough(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	transport := newCachingTransport(t, srv.Client().Transport)

	doRoundTrip(t, transport, srv.URL+"/api", "body")
	require.Equal(t, int32(1), count.Load())

	// Break the stored header JSON; the next read must fail closed and
	// refetch from upstream.
	key := cacheKey(http.MethodPost, srv.URL+"/api", []byte("body"))
	err := transport.db.GORM().Model(&cacheEntry{}).
		Where("`key` = ?", key).
		Update("header", []byte("not json{{{")).Error
	require.NoError(t, err)

	resp := doRoundTrip(t, transport, srv.URL+"/api", "body")
	require.Equal(t, `{"ok":true}`, readBody(t, resp))
	require.Equal(t, int32(2), count.Load())
}

func TestCachingTransport_EmbeddingProvider(t *testing.T) {
	stub := &embeddingStub{}
	srv := stub.start(t)

	transport := newCachingTransport(t, srv.Client().Transport)

	p := NewOpenAIProviderFromConfig(OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		EmbeddingModel: "text-embedding-3-small",
		MaxRetries:     1,
		HTTPClient:     &http.Client{Transport: transport},
	})

	texts := []string{"hello world", "foo bar"}
	ctx := t.Context()

	resp, err := p.Embed(ctx, NewEmbeddingRequest(texts))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 2)
	require.Equal(t, int64(1), stub.calls.Load())

	resp, err = p.Embed(ctx, NewEmbeddingRequest(texts))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 2)
	require.Equal(t, int64(1), stub.calls.Load(), "identical request comes from cache")

	_, err = p.Embed(ctx, NewEmbeddingRequest([]string{"different text"}))
	require.NoError(t, err)
	require.Equal(t, int64(2), stub.calls.Load(), "new texts reach upstream")
}

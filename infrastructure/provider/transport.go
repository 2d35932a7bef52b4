package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm/clause"

	"github.com/helixml/dokit/internal/database"
)

// CachingTransport is an http.RoundTripper that caches request/response
// pairs in a SQLite database, keyed by the SHA-256 of method + URL +
// request body. Only 2xx responses are cached. Cache read/write errors
// silently fall through to the inner transport.
type CachingTransport struct {
	inner http.RoundTripper
	db    database.Database
}

// cacheEntry is the GORM model for one cached response.
type cacheEntry struct {
	Key        string `gorm:"column:key;primaryKey;size:64"`
	StatusCode int    `gorm:"column:status_code"`
	Header     []byte `gorm:"column:header"`
	Body       []byte `gorm:"column:body"`
	CreatedAt  time.Time
}

// TableName returns the cache table name.
func (cacheEntry) TableName() string { return "http_cache" }

// NewCachingTransport creates a CachingTransport backed by a SQLite database
// under dir. If inner is nil, http.DefaultTransport is used.
func NewCachingTransport(dir string, inner http.RoundTripper) (*CachingTransport, error) {
	if inner == nil {
		inner = http.DefaultTransport
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := database.NewDatabase(context.Background(), "sqlite:///"+filepath.Join(dir, "http_cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.GORM().AutoMigrate(&cacheEntry{}); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("migrate cache schema: %w", err), errClose)
	}

	return &CachingTransport{inner: inner, db: db}, nil
}

// Close closes the cache database.
func (t *CachingTransport) Close() error {
	return t.db.Close()
}

// RoundTrip implements http.RoundTripper.
func (t *CachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	key := cacheKey(req.Method, req.URL.String(), body)

	if resp, ok := t.readCache(req, key); ok {
		return resp, nil
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()

	t.writeCache(req.Context(), key, resp.StatusCode, resp.Header, respBody)

	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

// cacheKey derives the cache key from the request method, URL, and body.
func cacheKey(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte("\n"))
	h.Write([]byte(url))
	h.Write([]byte("\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (t *CachingTransport) readCache(req *http.Request, key string) (*http.Response, bool) {
	var entry cacheEntry
	if err := t.db.Session(req.Context()).Where("`key` = ?", key).First(&entry).Error; err != nil {
		return nil, false
	}

	var header map[string][]string
	if err := json.Unmarshal(entry.Header, &header); err != nil {
		return nil, false
	}

	resp := &http.Response{
		StatusCode: entry.StatusCode,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(entry.Body)),
		Request:    req,
	}
	return resp, true
}

func (t *CachingTransport) writeCache(ctx context.Context, key string, statusCode int, header http.Header, body []byte) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return
	}
	entry := cacheEntry{
		Key:        key,
		StatusCode: statusCode,
		Header:     headerJSON,
		Body:       body,
	}
	// Concurrent identical requests can race the insert.
	_ = t.db.Session(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

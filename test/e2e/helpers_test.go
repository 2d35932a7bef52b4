package e2e_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/dokit"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/infrastructure/api"
	apimiddleware "github.com/helixml/dokit/infrastructure/api/middleware"
	v1 "github.com/helixml/dokit/infrastructure/api/v1"
	"github.com/helixml/dokit/infrastructure/persistence"
	"github.com/helixml/dokit/internal/database"
)

// TestServer wraps the API server for e2e testing.
type TestServer struct {
	t          *testing.T
	client     *dokit.Client
	db         database.Database
	httpServer *httptest.Server

	// Stores - for direct DB manipulation in tests
	documentStore persistence.DocumentStore
	chunkStore    persistence.ChunkStore
	taskStore     persistence.TaskStore
	statusStore   persistence.StatusStore
}

// NewTestServer creates a new test server with all dependencies wired up.
// Creates a dokit.Client backed by SQLite and a separate DB handle for test
// data seeding. Extra options are applied after the defaults, so tests can
// override them (a long poll period keeps the worker out of a test's way).
func NewTestServer(t *testing.T, opts ...dokit.Option) *TestServer {
	t.Helper()

	ctx := context.Background()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Create the dokit client first. The short poll period keeps the
	// background worker responsive for tests that wait on it.
	options := []dokit.Option{
		dokit.WithSQLite(dbPath),
		dokit.WithDataDir(tmpDir),
		dokit.WithSkipProviderValidation(),
		dokit.WithWorkerPollPeriod(50 * time.Millisecond),
	}
	options = append(options, opts...)

	client, err := dokit.New(options...)
	if err != nil {
		t.Fatalf("create dokit client: %v", err)
	}

	// Open a separate DB handle for seeding test data
	db, err := database.NewDatabase(ctx, "sqlite:///"+dbPath)
	if err != nil {
		t.Fatalf("create database: %v", err)
	}

	// Create stores for direct test data manipulation
	documentStore := persistence.NewDocumentStore(db)
	chunkStore := persistence.NewChunkStore(db)
	taskStore := persistence.NewTaskStore(db)
	statusStore := persistence.NewStatusStore(db)

	// Create API server using the client
	logger := client.Logger()
	server := api.NewServer(":0", logger)
	router := server.Router()

	// Apply middleware
	router.Use(apimiddleware.Logging(logger))
	router.Use(apimiddleware.CorrelationID)

	// Register routes. Each router takes just the client.
	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/documents", v1.NewDocumentsRouter(client).Routes())
		r.Mount("/ingestion", v1.NewIngestionRouter(client).Routes())
		r.Mount("/queue", v1.NewQueueRouter(client).Routes())

		r.Mount("/search", v1.NewSearchRouter(client).Routes())
	})

	// Health check
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Create httptest server
	httpServer := httptest.NewServer(router)

	ts := &TestServer{
		t:             t,
		client:        client,
		db:            db,
		httpServer:    httpServer,
		documentStore: documentStore,
		chunkStore:    chunkStore,
		taskStore:     taskStore,
		statusStore:   statusStore,
	}

	t.Cleanup(func() {
		ts.Close()
	})

	return ts
}

// URL returns the base URL of the test server.
func (ts *TestServer) URL() string {
	return ts.httpServer.URL
}

// Close shuts down the test server.
func (ts *TestServer) Close() {
	ts.httpServer.Close()
	_ = ts.client.Close()
	_ = ts.db.Close()
}

// GET performs a GET request and returns the response.
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()
	resp, err := http.Get(ts.URL() + path)
	if err != nil {
		ts.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with JSON body and returns the response.
func (ts *TestServer) POST(path string, body any) *http.Response {
	ts.t.Helper()
	jsonBody, err := json.Marshal(body)
	if err != nil {
		ts.t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(ts.URL()+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		ts.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// POSTMultipart performs a multipart/form-data upload with a single file
// part plus optional extra form fields, and returns the response.
func (ts *TestServer) POSTMultipart(path, filename string, content []byte, fields map[string]string) *http.Response {
	ts.t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		ts.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		ts.t.Fatalf("write form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			ts.t.Fatalf("write form field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		ts.t.Fatalf("close multipart writer: %v", err)
	}

	resp, err := http.Post(ts.URL()+path, writer.FormDataContentType(), &buf)
	if err != nil {
		ts.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// DELETE performs a DELETE request and returns the response.
func (ts *TestServer) DELETE(path string) *http.Response {
	ts.t.Helper()
	req, err := http.NewRequest(http.MethodDelete, ts.URL()+path, nil)
	if err != nil {
		ts.t.Fatalf("create DELETE request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("DELETE %s: %v", path, err)
	}
	return resp
}

// DecodeJSON decodes the response body as JSON into v.
func (ts *TestServer) DecodeJSON(resp *http.Response, v any) {
	ts.t.Helper()
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		ts.t.Fatalf("decode response: %v", err)
	}
}

// ReadBody reads and returns the response body as a string.
func (ts *TestServer) ReadBody(resp *http.Response) string {
	ts.t.Helper()
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.t.Fatalf("read body: %v", err)
	}
	return string(body)
}

// RegisterDocument registers a document through the API and returns its ID.
func (ts *TestServer) RegisterDocument(filename string, content []byte) int64 {
	ts.t.Helper()
	return ts.RegisterScopedDocument(filename, content, "", false)
}

// RegisterScopedDocument registers a document owned by a session, or a
// global one visible to every scope.
func (ts *TestServer) RegisterScopedDocument(filename string, content []byte, sessionID string, global bool) int64 {
	ts.t.Helper()

	payload := map[string]any{
		"filename": filename,
		"content":  base64.StdEncoding.EncodeToString(content),
	}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}
	if global {
		payload["global"] = true
	}

	resp := ts.POST("/api/v1/documents", payload)
	if resp.StatusCode != http.StatusAccepted {
		body := ts.ReadBody(resp)
		ts.t.Fatalf("register %s: status = %d; body: %s", filename, resp.StatusCode, body)
	}

	var result documentCreatedResponse
	ts.DecodeJSON(resp, &result)
	return result.Data.IDValue(ts.t)
}

// RegisterAndIngest registers a document and waits for the background
// worker to finish ingesting it.
func (ts *TestServer) RegisterAndIngest(filename string, content []byte) int64 {
	ts.t.Helper()

	id := ts.RegisterDocument(filename, content)
	ts.WaitForStatus(id, 10*time.Second, "completed")
	return id
}

// IngestDocument runs the synchronous ingestion endpoint for a document.
func (ts *TestServer) IngestDocument(documentID int64) ingestionResponse {
	ts.t.Helper()

	resp := ts.POST("/api/v1/ingestion", map[string]any{"document_id": documentID})
	if resp.StatusCode != http.StatusOK {
		body := ts.ReadBody(resp)
		ts.t.Fatalf("ingest document %d: status = %d; body: %s", documentID, resp.StatusCode, body)
	}

	var result ingestionResponse
	ts.DecodeJSON(resp, &result)
	return result
}

// CreateDocument creates a document record in the database directly,
// bypassing the API and the blob store.
func (ts *TestServer) CreateDocument(filename, sessionID string) document.Document {
	ts.t.Helper()
	ctx := context.Background()

	doc, err := document.NewDocument(filename, "", "", 0)
	if err != nil {
		ts.t.Fatalf("create document: %v", err)
	}
	if sessionID != "" {
		doc = doc.WithScope(sessionID, false)
	}
	saved, err := ts.documentStore.Save(ctx, doc)
	if err != nil {
		ts.t.Fatalf("save document: %v", err)
	}
	return saved
}

// CreateTask creates a task in the database directly.
func (ts *TestServer) CreateTask(operation task.Operation, payload map[string]any) task.Task {
	ts.t.Helper()
	ctx := context.Background()

	tsk := task.NewTask(operation, int(task.PriorityNormal), payload)
	saved, err := ts.taskStore.Save(ctx, tsk)
	if err != nil {
		ts.t.Fatalf("save task: %v", err)
	}
	return saved
}

// WaitForStatus polls the status summary endpoint until the document
// reaches one of the wanted statuses or the deadline expires.
func (ts *TestServer) WaitForStatus(documentID int64, deadline time.Duration, wanted ...string) string {
	ts.t.Helper()

	wantSet := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		wantSet[w] = struct{}{}
	}

	var last string
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		resp := ts.GET(statusSummaryPath(documentID))
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			time.Sleep(25 * time.Millisecond)
			continue
		}

		var result statusSummaryResponse
		ts.DecodeJSON(resp, &result)
		last = result.Data.Attributes.Status
		if _, ok := wantSet[last]; ok {
			return last
		}
		time.Sleep(25 * time.Millisecond)
	}

	ts.t.Fatalf("document %d did not reach status %v within %s (last: %q)", documentID, wanted, deadline, last)
	return ""
}

// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/infrastructure/api/jsonapi"
	"github.com/helixml/dokit/infrastructure/api/middleware"
	"github.com/helixml/dokit/infrastructure/api/v1/dto"
)

// maxUploadBytes caps multipart document uploads at 100 MiB.
const maxUploadBytes = 100 << 20

// DocumentsRouter handles document API endpoints.
type DocumentsRouter struct {
	client     *dokit.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewDocumentsRouter creates a new DocumentsRouter.
func NewDocumentsRouter(client *dokit.Client) *DocumentsRouter {
	return &DocumentsRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for document endpoints.
func (r *DocumentsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Add)
	router.Get("/{id}", r.Get)
	router.Delete("/{id}", r.Delete)
	router.Post("/{id}/reingest", r.Reingest)
	router.Get("/{id}/content", r.GetContent)
	router.Get("/{id}/status", r.GetStatus)
	router.Get("/{id}/status/summary", r.GetStatusSummary)

	return router
}

// List handles GET /api/v1/documents.
//
//	@Summary		List documents
//	@Description	Get all registered documents
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			page		query	int		false	"Page number (default: 1)"
//	@Param			page_size	query	int		false	"Results per page (default: 20, max: 100)"
//	@Param			session_id	query	string	false	"Filter by owning session"
//	@Success		200	{object}	dto.DocumentListResponse
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents [get]
func (r *DocumentsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	var filterOpts []repository.Option
	if sessionID := req.URL.Query().Get("session_id"); sessionID != "" {
		filterOpts = append(filterOpts, repository.WithSessionID(sessionID))
	}

	// Newest first, so page boundaries stay stable as documents arrive.
	listOpts := append([]repository.Option{repository.WithOrderDesc("created_at")}, filterOpts...)
	listOpts = append(listOpts, pagination.Options()...)

	docs, err := r.client.Documents.Find(ctx, listOpts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Documents.Count(ctx, filterOpts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	response := dto.DocumentListResponse{
		Data:  r.serializer.DocumentResources(docs),
		Meta:  PaginationMeta(pagination, total),
		Links: PaginationLinks(req, pagination, total),
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/documents/{id}.
//
//	@Summary		Get document
//	@Description	Get a document by ID
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Document ID"
//	@Success		200	{object}	dto.DocumentResponse
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents/{id} [get]
func (r *DocumentsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc, err := r.client.Documents.Get(ctx, repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.DocumentResponse{Data: r.serializer.DocumentResource(doc)})
}

// Add handles POST /api/v1/documents.
//
// Accepts either a JSON body with base64-encoded content or a
// multipart/form-data upload with a "file" part.
//
//	@Summary		Register document
//	@Description	Register a document and queue it for ingestion
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.DocumentCreateRequest	true	"Document request"
//	@Success		202		{object}	dto.DocumentCreatedResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents [post]
func (r *DocumentsRouter) Add(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	params, ok := r.decodeAddRequest(w, req)
	if !ok {
		return
	}

	if params.Filename == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "filename is required",
		})
		return
	}

	doc, err := r.client.Documents.Add(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	tasks, err := r.client.Tasks.PendingForDocument(ctx, doc.ID())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, dto.DocumentCreatedResponse{
		Data:  r.serializer.DocumentResource(doc),
		Tasks: r.serializer.TaskResources(tasks),
	})
}

// decodeAddRequest reads the registration params from either a multipart
// upload or a JSON body. On failure it writes the error response and
// returns ok=false.
func (r *DocumentsRouter) decodeAddRequest(w http.ResponseWriter, req *http.Request) (*service.DocumentAddParams, bool) {
	contentType := req.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid multipart form",
			})
			return nil, false
		}

		file, header, err := req.FormFile("file")
		if err != nil {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": "file part is required",
			})
			return nil, false
		}
		defer func() { _ = file.Close() }()

		content, err := io.ReadAll(file)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return nil, false
		}

		filename := req.FormValue("filename")
		if filename == "" {
			filename = header.Filename
		}

		return &service.DocumentAddParams{
			Filename:  filename,
			MediaType: req.FormValue("media_type"),
			Content:   content,
			SessionID: req.FormValue("session_id"),
			Global:    req.FormValue("global") == "true",
		}, true
	}

	var body dto.DocumentCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return nil, false
	}

	var content []byte
	if body.Content != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": "content must be base64 encoded",
			})
			return nil, false
		}
		content = decoded
	}

	return &service.DocumentAddParams{
		Filename:    body.Filename,
		MediaType:   body.MediaType,
		Content:     content,
		StoragePath: body.StoragePath,
		SessionID:   body.SessionID,
		Global:      body.Global,
	}, true
}

// Delete handles DELETE /api/v1/documents/{id}.
//
//	@Summary		Delete document
//	@Description	Delete a document, its chunks, and its stored blob
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id	path	int	true	"Document ID"
//	@Success		204
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents/{id} [delete]
func (r *DocumentsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if err := r.client.Documents.Delete(ctx, id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reingest handles POST /api/v1/documents/{id}/reingest.
//
//	@Summary		Reingest document
//	@Description	Queue the ingestion workflow again for an existing document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Document ID"
//	@Success		202	{object}	dto.TaskListResponse
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents/{id}/reingest [post]
func (r *DocumentsRouter) Reingest(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if err := r.client.Documents.Reingest(ctx, id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	tasks, err := r.client.Tasks.PendingForDocument(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, dto.TaskListResponse{
		Data: r.serializer.TaskResources(tasks),
	})
}

// GetContent handles GET /api/v1/documents/{id}/content.
//
//	@Summary		Download document content
//	@Description	Stream the stored document bytes
//	@Tags			documents
//	@Produce		octet-stream
//	@Param			id	path		int	true	"Document ID"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents/{id}/content [get]
func (r *DocumentsRouter) GetContent(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc, err := r.client.Documents.Get(ctx, repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	content, err := r.client.Documents.Content(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	mediaType := doc.MediaType()
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// GetStatus handles GET /api/v1/documents/{id}/status.
//
//	@Summary		Get document status
//	@Description	Get ingestion task status for a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Document ID"
//	@Success		200	{object}	dto.TaskStatusListResponse
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents/{id}/status [get]
func (r *DocumentsRouter) GetStatus(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	// Check document exists
	_, err = r.client.Documents.Get(ctx, repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	statuses, err := r.client.Tracking.Statuses(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.TaskStatusListResponse{
		Data: r.serializer.TaskStatusResources(statuses),
	})
}

// GetStatusSummary handles GET /api/v1/documents/{id}/status/summary.
//
//	@Summary		Get document status summary
//	@Description	Get aggregated ingestion status for a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Document ID"
//	@Success		200	{object}	dto.StatusSummaryResponse
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/documents/{id}/status/summary [get]
func (r *DocumentsRouter) GetStatusSummary(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	// Check document exists
	_, err = r.client.Documents.Get(ctx, repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	summary, err := r.client.Tracking.Summary(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.StatusSummaryResponse{
		Data: r.serializer.StatusSummaryResource(id, summary),
	})
}

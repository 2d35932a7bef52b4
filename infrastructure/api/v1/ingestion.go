package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/infrastructure/api/middleware"
	"github.com/helixml/dokit/infrastructure/api/v1/dto"
)

// IngestionRouter handles synchronous ingestion API endpoints.
//
// Document registration queues ingestion in the background; this endpoint
// runs the full extract-and-embed workflow inline and blocks until done.
type IngestionRouter struct {
	client *dokit.Client
	logger *slog.Logger
}

// NewIngestionRouter creates a new IngestionRouter.
func NewIngestionRouter(client *dokit.Client) *IngestionRouter {
	return &IngestionRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for ingestion endpoints.
func (r *IngestionRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Ingest)

	return router
}

// Ingest handles POST /api/v1/ingestion.
//
//	@Summary		Ingest document
//	@Description	Extract text, chunk, and embed a registered document synchronously
//	@Tags			ingestion
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.IngestionRequest	true	"Ingestion request"
//	@Success		200		{object}	dto.IngestionResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Security		APIKeyAuth
//	@Router			/ingestion [post]
func (r *IngestionRouter) Ingest(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.IngestionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	documentID := body.ResolvedDocumentID()
	if documentID == 0 {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "document_id is required",
		})
		return
	}

	result, err := r.client.Ingest.Ingest(ctx, documentID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.IngestionResponse{
		Success:       true,
		ChunksCreated: result.ChunksCreated(),
		PageCount:     result.PageCount(),
		TextLength:    result.TextLength(),
	})
}

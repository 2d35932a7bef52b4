package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/infrastructure/api/middleware"
	"github.com/helixml/dokit/infrastructure/api/v1/dto"
)

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	client *dokit.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *dokit.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)
	router.Get("/", r.SearchQuery)

	return router
}

// Search handles POST /api/v1/search.
//
//	@Summary		Search documents
//	@Description	Rank document chunks against a free-text query
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.SearchRequest	true	"Search request"
//	@Success		200		{object}	dto.SearchResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/search [post]
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if body.Query == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "query is required",
		})
		return
	}

	result, err := r.client.Search.Search(ctx, service.SearchRequest{
		Query:   body.Query,
		ScopeID: body.ScopeID,
		Limit:   body.Limit,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildSearchResponse(result))
}

// SearchQuery handles GET /api/v1/search.
//
// Same semantics as the POST form, with the query carried in URL
// parameters. Useful for quick curl checks and browser links.
//
//	@Summary		Search documents via query parameters
//	@Description	Rank document chunks against a free-text query
//	@Tags			search
//	@Produce		json
//	@Param			q			query	string	true	"Query text"
//	@Param			scope_id	query	string	false	"Restrict results to one session scope"
//	@Param			limit		query	int		false	"Maximum results (default: 10)"
//	@Success		200	{object}	dto.SearchResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/search [get]
func (r *SearchRouter) SearchQuery(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	query := req.URL.Query().Get("q")
	if query == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "q is required",
		})
		return
	}

	limit := 0
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := r.client.Search.Search(ctx, service.SearchRequest{
		Query:   query,
		ScopeID: req.URL.Query().Get("scope_id"),
		Limit:   limit,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildSearchResponse(result))
}

func buildSearchResponse(result service.SearchResponse) dto.SearchResponse {
	results := result.Results()

	data := make([]dto.SearchResultData, 0, len(results))
	for _, hit := range results {
		data = append(data, dto.SearchResultData{
			DocumentID:   hit.DocumentID(),
			DocumentName: hit.DocumentName(),
			Page:         hit.Page(),
			Snippet:      hit.Snippet(),
			Score:        hit.Score(),
		})
	}

	return dto.SearchResponse{
		Results:     data,
		Query:       result.Query(),
		TotalChunks: result.TotalChunks(),
		Message:     result.Message(),
	}
}

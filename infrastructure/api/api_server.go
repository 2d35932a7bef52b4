package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/dokit"
	apimiddleware "github.com/helixml/dokit/infrastructure/api/middleware"
	v1 "github.com/helixml/dokit/infrastructure/api/v1"
	mcpinternal "github.com/helixml/dokit/internal/mcp"
)

// v1Timeout bounds each /api/v1 request. The MCP endpoint is exempt; see
// mountMCP.
const v1Timeout = 60 * time.Second

// APIServer assembles the HTTP routes for a dokit Client: the versioned
// REST API, the MCP endpoint, and the docs pages.
type APIServer struct {
	client  *dokit.Client
	apiKeys []string
	router  chi.Router
	logger  *slog.Logger
}

// NewAPIServer creates an APIServer backed by the given dokit Client.
// apiKeys configures write protection: mutating methods (POST, PUT, PATCH,
// DELETE) under /api/v1/documents and /api/v1/ingestion require a valid
// key. Search, queue, MCP, and docs stay open.
func NewAPIServer(client *dokit.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client:  client,
		apiKeys: apiKeys,
		logger:  client.Logger(),
	}
}

// Router returns the chi router so callers can install middleware before
// routes are mounted. Middleware added after MountRoutes has no effect on
// the mounted routes; chi requires Use before any Mount.
func (a *APIServer) Router() chi.Router {
	if a.router == nil {
		a.router = chi.NewRouter()
	}
	return a.router
}

// MountRoutes wires the v1 API and the MCP endpoint onto the router.
func (a *APIServer) MountRoutes() {
	router := a.Router()
	a.mountV1(router)
	a.mountMCP(router)
}

// Handler returns the fully routed handler, mounting the default routes if
// the caller never did.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.MountRoutes()
	}
	return a.router
}

// DocsRouter returns a router for Swagger UI and the OpenAPI document.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

func (a *APIServer) mountV1(router chi.Router) {
	c := a.client

	documents := v1.NewDocumentsRouter(c)
	queue := v1.NewQueueRouter(c)
	ingestion := v1.NewIngestionRouter(c)
	search := v1.NewSearchRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(corsOptions()))
		r.Use(chimiddleware.Timeout(v1Timeout))

		// Search is a read-only POST and queue is GET-only, so neither
		// carries the key check.
		r.Mount("/search", search.Routes())
		r.Mount("/queue", queue.Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(a.apiKeys))
			r.Mount("/documents", documents.Routes())
			r.Mount("/ingestion", ingestion.Routes())
		})
	})
}

// mountMCP mounts the Model Context Protocol endpoint outside the v1
// group. MCP streams responses and tracks sessions through response
// headers, both of which break under chi's Timeout middleware because it
// wraps the ResponseWriter.
func (a *APIServer) mountMCP(router chi.Router) {
	mcpSrv := mcpinternal.NewServer(a.client.Search, a.client.Documents, "1.0.0", a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

// corsOptions permits browser clients from any origin. Link and
// X-Correlation-ID are exposed so cross-origin scripts can follow
// pagination and report request IDs.
func corsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-KEY", "X-Correlation-ID"},
		ExposedHeaders: []string{"Link", "X-Correlation-ID"},
		MaxAge:         300,
	}
}

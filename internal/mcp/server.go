// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
)

// Searcher provides document retrieval operations for MCP tools.
type Searcher interface {
	Search(ctx context.Context, request service.SearchRequest) (service.SearchResponse, error)
}

// DocumentLookup provides document retrieval by ID for MCP tools.
type DocumentLookup interface {
	Get(ctx context.Context, options ...repository.Option) (document.Document, error)
}

// Server wraps the MCP server with dokit-specific tools.
type Server struct {
	mcpServer     *server.MCPServer
	searchService Searcher
	documents     DocumentLookup
	version       string
	logger        *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searchService Searcher, documents DocumentLookup, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searchService: searchService,
		documents:     documents,
		version:       version,
		logger:        logger,
	}

	// Create MCP server with server info
	mcpServer := server.NewMCPServer(
		"dokit",
		version,
		server.WithToolCapabilities(true),
	)

	// Register tools
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all dokit tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	// Search tool
	searchTool := mcp.NewTool("search_documents",
		mcp.WithDescription("Search ingested documents for passages relevant to a free-text query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithString("scope_id",
			mcp.Description("Restrict results to documents owned by this session scope"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of results to return (default: 10)"),
		),
	)

	mcpServer.AddTool(searchTool, s.handleSearch)

	// Get document tool
	getDocumentTool := mcp.NewTool("get_document",
		mcp.WithDescription("Get a document's metadata and extracted text by its ID"),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("The numeric ID of the document"),
		),
	)

	mcpServer.AddTool(getDocumentTool, s.handleGetDocument)

	// Version tool
	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the dokit server version"),
	)

	mcpServer.AddTool(versionTool, s.handleGetVersion)
}

// handleGetVersion handles the get_version tool invocation.
func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments using helper methods
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	limit := request.GetInt("limit", 10)
	scopeID := request.GetString("scope_id", "")

	// Execute search
	result, err := s.searchService.Search(ctx, service.SearchRequest{
		Query:   query,
		ScopeID: scopeID,
		Limit:   limit,
	})
	if err != nil {
		s.logger.Error("search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	// Format results
	type searchResult struct {
		URI          string  `json:"uri"`
		DocumentID   int64   `json:"document_id"`
		DocumentName string  `json:"document_name"`
		Page         int     `json:"page"`
		Snippet      string  `json:"snippet"`
		Score        float64 `json:"score"`
	}

	hits := result.Results()
	results := make([]searchResult, len(hits))
	for i, hit := range hits {
		uri := NewDocumentURI(hit.DocumentID(), hit.DocumentName()).WithPage(hit.Page())
		results[i] = searchResult{
			URI:          uri.String(),
			DocumentID:   hit.DocumentID(),
			DocumentName: hit.DocumentName(),
			Page:         hit.Page(),
			Snippet:      hit.Snippet(),
			Score:        hit.Score(),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id is required"), nil
	}

	if s.documents == nil {
		return mcp.NewToolResultError("document lookup not configured"), nil
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid document_id: %s", idStr)), nil
	}

	doc, err := s.documents.Get(ctx, repository.WithID(id))
	if err != nil {
		s.logger.Error("failed to get document", slog.String("document_id", idStr), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get document: %v", err)), nil
	}

	type documentResult struct {
		ID        string `json:"id"`
		Filename  string `json:"filename"`
		MediaType string `json:"media_type"`
		PageCount int    `json:"page_count"`
		SizeBytes int64  `json:"size_bytes"`
		Text      string `json:"text"`
	}

	result := documentResult{
		ID:        strconv.FormatInt(doc.ID(), 10),
		Filename:  doc.Filename(),
		MediaType: doc.MediaType(),
		PageCount: doc.PageCount(),
		SizeBytes: doc.SizeBytes(),
		Text:      doc.ExtractedText(),
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/infrastructure/api"
	apimiddleware "github.com/helixml/dokit/infrastructure/api/middleware"
	"github.com/helixml/dokit/internal/config"
	"github.com/helixml/dokit/internal/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.dokit)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/dokit.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys

  EMBEDDING_ENDPOINT_*         External embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier, or "local" for the bundled
                               ONNX runtime (unset: built-in hash embedder)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 5)
    MAX_BATCH_CHARS            Characters per embedding batch (default: 24000)

  EMBEDDING_DIMENSION          Hash embedder vector length (default: 256)
  EMBEDDING_BATCH_SIZE         Chunks embedded per batch (default: 20)
  EMBEDDING_STOP_WORDS_FILE    YAML stop word list override

  CHUNKING_CHUNK_SIZE          Target chunk size in characters (default: 1000)
  CHUNKING_CHUNK_OVERLAP       Overlap between chunks (default: 200)
  CHUNKING_MIN_CHUNK_LENGTH    Minimum chunk length (default: 50)

  SEARCH_LIMIT                 Default search result count (default: 5)
  RETRIEVAL_MAX_LIMIT          Hard cap on requested results (default: 50)
  RETRIEVAL_MIN_SCORE          Score threshold for results (default: 0.05)
  RETRIEVAL_SNIPPET_LENGTH     Snippet truncation length (default: 300)

  PERIODIC_SYNC_ENABLED        Retry unfinished ingestions (default: true)
  PERIODIC_SYNC_INTERVAL_SECONDS  Age before an ingestion is retried (default: 1800)
  PERIODIC_SYNC_RETRY_ATTEMPTS  Re-enqueues per stuck document (default: 3)
  REPORTING_LOG_TIME_INTERVAL  Seconds between progress log lines (default: 5)

  HTTP_CACHE_DIR               Cache embedding API responses on disk
  PDFIUM_ENABLED               Use the pdfium PDF extractor (default: true)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	// Load configuration
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Apply command line overrides (flags take precedence over env vars)
	cfg = applyServeOverrides(cfg, host, port)

	addr := cfg.Addr()

	// Ensure directories exist
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Setup logger
	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	// Build dokit client options
	opts, err := clientOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts,
		dokit.WithDataDir(cfg.DataDir()),
		dokit.WithLogger(slogger),
		dokit.WithPeriodicSyncConfig(cfg.PeriodicSync()),
	)

	// Configure API keys
	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, dokit.WithAPIKeys(keys...))
	}

	// Skip provider validation if explicitly requested (for testing)
	if cfg.SkipProviderValidation() {
		opts = append(opts, dokit.WithSkipProviderValidation())
	}

	// Create dokit client and log settings
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting dokit", attrs...)

	client, err := dokit.New(opts...)
	if err != nil {
		return fmt.Errorf("create dokit client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close dokit client", slog.Any("error", err))
		}
	}()

	// Create API server with the client's services
	apiServer := api.NewAPIServer(client, client.APIKeys())
	router := apiServer.Router()

	// Apply custom middleware (MUST be done before MountRoutes).
	// CorrelationID runs first so the request log line can carry the ID.
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(slogger))

	// Mount API routes after middleware is configured
	apiServer.MountRoutes()

	// Health check endpoints
	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)

	// Root endpoint with API info
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"dokit","version":"%s","docs":"/docs"}`, version)
	})

	// Documentation routes
	docsRouter := apiServer.DocsRouter("/docs/openapi.json")
	router.Mount("/docs", docsRouter.Routes())

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create standalone server for custom router
	server := api.NewServer(addr, slogger)
	server.Router().Mount("/", router)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	slogger.Info("starting server", slog.String("addr", addr))
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}

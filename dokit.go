// Package dokit provides a library for document ingestion and retrieval.
//
// Dokit stores uploaded documents, extracts their text, splits it into
// overlapping chunks, embeds every chunk with a deterministic hashed
// bag-of-words sketch, and answers free-text queries with the best-scoring
// snippets (cosine similarity blended with a keyword-overlap boost).
//
// Basic usage:
//
//	client, err := dokit.New(
//	    dokit.WithSQLite(".dokit/data.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Register a document (ingestion runs in the background)
//	doc, err := client.Documents.Add(ctx, &service.DocumentAddParams{
//	    Filename: "handbook.pdf",
//	    Content:  pdfBytes,
//	})
//
//	// Retrieve grounding snippets
//	resp, err := client.Search.Search(ctx, service.SearchRequest{
//	    Query: "how do I request leave",
//	    Limit: 5,
//	})
//
//	for _, result := range resp.Results() {
//	    fmt.Println(result.DocumentName(), result.Page(), result.Snippet())
//	}
package dokit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/search"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/infrastructure/blob"
	"github.com/helixml/dokit/infrastructure/chunking"
	"github.com/helixml/dokit/infrastructure/extract"
	"github.com/helixml/dokit/infrastructure/persistence"
	"github.com/helixml/dokit/infrastructure/provider"
	infrasearch "github.com/helixml/dokit/infrastructure/search"
	"github.com/helixml/dokit/infrastructure/tracking"
	"github.com/helixml/dokit/internal/config"
	"github.com/helixml/dokit/internal/database"
)

// Client is the main entry point for the dokit library.
// The background worker starts automatically on creation.
//
// Access resources via struct fields:
//
//	client.Documents.Find(ctx)
//	client.Search.Search(ctx, service.SearchRequest{Query: "query"})
//	client.Tracking.Summary(ctx, documentID)
type Client struct {
	// Public resource fields (direct service access)
	Documents *service.Document
	Search    *service.Search
	Ingest    *service.Ingest
	Tasks     *service.Queue
	Tracking  *service.Tracking

	// Chunks gives read access to stored chunks, mainly for inspection
	// and diagnostics. Mutation flows through ingestion.
	Chunks chunk.Store

	db database.Database

	documentStore persistence.DocumentStore
	chunkStore    persistence.ChunkStore
	taskStore     persistence.TaskStore
	statusStore   persistence.StatusStore

	blobs      *blob.FilesystemStore
	extractors *extract.Registry
	embedding  *domainservice.EmbeddingService

	// Application services (internal only)
	queue        *service.Queue
	worker       *service.Worker
	periodicSync *service.PeriodicSync
	registry     *service.Registry

	trackerFactory *trackerFactoryImpl

	hugotEmbedding *provider.HugotEmbedding
	closers        []io.Closer

	logger        *slog.Logger
	dataDir       string
	blobDir       string
	apiKeys       []string
	chunkParams   chunking.ChunkParams
	prescribedOps task.PrescribedOperations
	closed        atomic.Bool
	mu            sync.Mutex
}

// New creates a new Client with the given options.
// The background worker is started automatically.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	// Set up logger
	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	// Set up data directory
	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	// Set up blob directory
	blobDir, err := config.PrepareBlobDir(cfg.blobDir, dataDir)
	if err != nil {
		return nil, err
	}

	// Opt-in ONNX embedding provider. Requires downloaded model files.
	var hugotEmbedding *provider.HugotEmbedding
	if cfg.useHugot && cfg.embeddingProvider == nil {
		modelDir := cfg.modelDir
		if modelDir == "" {
			modelDir = filepath.Join(dataDir, "models")
		}
		hugotEmbedding = provider.NewHugotEmbedding(modelDir)
		if !hugotEmbedding.Available() {
			return nil, fmt.Errorf("no embedding model found in %s: run 'make download-model' or use the default hash embedder", modelDir)
		}
		cfg.embeddingProvider = hugotEmbedding
		logger.Info("onnx embedding provider enabled", slog.String("model_dir", modelDir))
	}

	// Default to the built-in hash embedder when no provider is configured.
	// The same embedder instance serves ingestion and queries; the scorer
	// assumes both sides hashed into the same buckets with the same stop
	// words, so the pairing must never be split.
	if cfg.embeddingProvider == nil {
		stopWords := cfg.stopWords
		if stopWords == nil && cfg.stopWordsFile != "" {
			stopWords, err = config.LoadStopWords(cfg.stopWordsFile)
			if err != nil {
				return nil, fmt.Errorf("load stop words: %w", err)
			}
		}
		cfg.embeddingProvider = provider.NewHashEmbedding(cfg.embeddingDimension, stopWords)
		logger.Info("built-in hash embedding provider enabled",
			slog.Int("dimension", cfg.embeddingDimension))
	}

	// Build database URL
	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	// Open database
	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Run auto migration
	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	// Validate schema matches GORM models
	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	// Create stores
	documentStore := persistence.NewDocumentStore(db)
	chunkStore := persistence.NewChunkStore(db)
	taskStore := persistence.NewTaskStore(db)
	statusStore := persistence.NewStatusStore(db)

	// Blob storage under the data directory
	blobs, err := blob.NewFilesystemStore(blobDir)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("blob store: %w", err), errClose)
	}

	// Text extractors keyed by media type. The pdfium extractor falls back
	// to the heuristic scanner when the runtime is unavailable.
	var pdfExtractor domainservice.TextExtractor = extract.NewHeuristicPDFExtractor()
	if cfg.pdfiumEnabled {
		pdfExtractor = extract.NewPdfiumExtractor(extract.NewHeuristicPDFExtractor())
	}
	extractors := extract.NewRegistry(pdfExtractor)

	// Create domain embedder from infrastructure provider
	domainEmbedder := &embeddingAdapter{inner: cfg.embeddingProvider}

	// Embedding service pairs the chunk store with the provider and a
	// batch budget.
	searcher := infrasearch.NewChunkSearcher(chunkStore, logger)
	budget := cfg.embeddingBudget
	if cfg.embedBatchSize > 0 {
		budget = budget.WithMaxBatchSize(cfg.embedBatchSize)
	}
	embeddingSvc, err := domainservice.NewEmbedding(chunkStore, searcher, domainEmbedder, budget)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("create embedding service: %w", err), errClose)
	}

	// Create application services
	registry := service.NewRegistry()
	queue := service.NewQueue(taskStore, logger)
	trackingSvc := service.NewTracking(statusStore, taskStore)

	// Create tracker factory for progress reporting.
	// Cooldowns rate-limit delivery per status ID during high-frequency
	// updates: database writes at most once per second, log lines at the
	// configured reporting interval.
	dbCooldown := tracking.NewCooldown(tracking.NewDBReporter(statusStore, logger), time.Second)
	logCooldown := tracking.NewCooldown(tracking.NewLoggingReporter(logger), cfg.reporting.LogTimeInterval())
	reporters := []tracking.Reporter{dbCooldown, logCooldown}
	trackerFactory := &trackerFactoryImpl{
		reporters: reporters,
		logger:    logger,
	}
	worker := service.NewWorker(taskStore, registry, &workerTrackerAdapter{trackerFactory}, logger)
	if cfg.workerPollPeriod > 0 {
		worker.WithPollPeriod(cfg.workerPollPeriod)
	}
	prescribedOps := task.NewPrescribedOperations()
	periodicSync := service.NewPeriodicSync(cfg.periodicSync, documentStore, queue, prescribedOps, logger)

	// Register cooldowns for cleanup on close so pending statuses are flushed.
	cfg.closers = append(cfg.closers, dbCooldown, logCooldown)

	client := &Client{
		db:             db,
		documentStore:  documentStore,
		chunkStore:     chunkStore,
		taskStore:      taskStore,
		statusStore:    statusStore,
		blobs:          blobs,
		extractors:     extractors,
		embedding:      embeddingSvc,
		queue:          queue,
		worker:         worker,
		periodicSync:   periodicSync,
		registry:       registry,
		trackerFactory: trackerFactory,
		hugotEmbedding: hugotEmbedding,
		closers:        cfg.closers,
		logger:         logger,
		dataDir:        dataDir,
		blobDir:        blobDir,
		apiKeys:        cfg.apiKeys,
		chunkParams:    cfg.chunkParams,
		prescribedOps:  prescribedOps,
	}

	// Initialize service fields directly
	client.Documents = service.NewDocument(documentStore, blobs, queue, prescribedOps, logger)
	client.Ingest = service.NewIngest(documentStore, chunkStore, blobs, extractors, embeddingSvc, cfg.chunkParams, logger)
	client.Search = service.NewSearch(documentStore, chunkStore, embeddingSvc, cfg.retrieval, &client.closed, logger)
	client.Tasks = queue
	client.Tracking = trackingSvc
	client.Chunks = chunkStore

	// Register task handlers
	if err := client.registerHandlers(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	// Validate all prescribed operations have handlers
	if !cfg.skipProviderValidation {
		if err := client.validateHandlers(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	// Start the background worker and periodic sync
	worker.Start(ctx)
	periodicSync.Start(ctx)

	return client, nil
}

// Close releases all resources and stops the background worker.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stop the periodic sync and worker
	c.periodicSync.Stop()
	c.worker.Stop()

	// Close built-in ONNX embedding provider
	if c.hugotEmbedding != nil {
		if err := c.hugotEmbedding.Close(); err != nil {
			c.logger.Error("failed to close hugot embedding", slog.Any("error", err))
		}
	}

	// Close registered resources (e.g. status reporter cooldowns)
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	// Close the database
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("dokit client closed")
	return nil
}

// WorkerIdle reports whether the background worker has no in-flight tasks.
func (c *Client) WorkerIdle() bool {
	return !c.worker.Busy()
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the API keys configured for HTTP authentication.
func (c *Client) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// embeddingAdapter adapts provider.Embedder to the domain search.Embedder interface.
type embeddingAdapter struct {
	inner provider.Embedder
}

func (a *embeddingAdapter) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := a.inner.Embed(ctx, provider.NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	return resp.Embeddings(), nil
}

var _ search.Embedder = (*embeddingAdapter)(nil)

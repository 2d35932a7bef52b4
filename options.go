package dokit

import (
	"io"
	"log/slog"
	"time"

	"github.com/helixml/dokit/domain/search"
	"github.com/helixml/dokit/infrastructure/chunking"
	"github.com/helixml/dokit/infrastructure/provider"
	"github.com/helixml/dokit/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database               databaseType
	dbPath                 string
	dbDSN                  string
	dataDir                string
	blobDir                string
	modelDir               string
	useHugot               bool
	pdfiumEnabled          bool
	embeddingProvider      provider.Embedder
	embeddingDimension     int
	stopWords              []string
	stopWordsFile          string
	logger                 *slog.Logger
	apiKeys                []string
	workerPollPeriod       time.Duration
	skipProviderValidation bool
	embeddingBudget        search.TokenBudget
	embedBatchSize         int
	retrieval              config.RetrievalConfig
	chunkParams            chunking.ChunkParams
	periodicSync           config.PeriodicSyncConfig
	reporting              config.ReportingConfig
	closers                []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
// This ensures all defaults come from the single source of truth.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:            config.DefaultDataDir(),
		embeddingDimension: provider.DefaultHashDimension,
		embeddingBudget:    search.DefaultTokenBudget(),
		retrieval:          config.NewRetrievalConfig(),
		chunkParams:        chunking.DefaultChunkParams(),
		periodicSync:       config.NewPeriodicSyncConfig(),
		reporting:          config.NewReportingConfig(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL as the database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithOpenAI sets OpenAI as the embedding provider.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = provider.NewOpenAIProvider(apiKey)
	}
}

// WithOpenAIConfig sets OpenAI with custom configuration.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = provider.NewOpenAIProviderFromConfig(cfg)
	}
}

// WithEmbeddingProvider sets a custom embedding provider.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithHugot enables the built-in ONNX embedding provider, loading model
// files from modelDir. If modelDir is empty, {dataDir}/models is used.
// Client creation fails when no model files are present.
func WithHugot(modelDir string) Option {
	return func(c *clientConfig) {
		c.useHugot = true
		c.modelDir = modelDir
	}
}

// WithEmbeddingDimension sets the dimension of the built-in hash embedder.
// Defaults to 256. Values <= 0 are ignored. Changing the dimension after
// documents have been ingested requires re-ingesting them.
func WithEmbeddingDimension(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.embeddingDimension = n
		}
	}
}

// WithStopWords sets the stop word list for the built-in hash embedder.
func WithStopWords(words ...string) Option {
	return func(c *clientConfig) {
		c.stopWords = words
	}
}

// WithStopWordsFile loads the stop word list for the built-in hash embedder
// from a YAML file. Ignored when WithStopWords is also given.
func WithStopWordsFile(path string) Option {
	return func(c *clientConfig) {
		c.stopWordsFile = path
	}
}

// WithEmbeddingBudget sets the character budget for embedding batches.
func WithEmbeddingBudget(b search.TokenBudget) Option {
	return func(c *clientConfig) {
		c.embeddingBudget = b
	}
}

// WithEmbedBatchSize caps how many chunks are embedded per provider call.
// Values <= 0 are ignored.
func WithEmbedBatchSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.embedBatchSize = n
		}
	}
}

// WithChunkParams sets the text chunking parameters used during ingestion.
func WithChunkParams(p chunking.ChunkParams) Option {
	return func(c *clientConfig) {
		c.chunkParams = p
	}
}

// WithRetrievalConfig sets the search scoring and limit configuration.
func WithRetrievalConfig(cfg config.RetrievalConfig) Option {
	return func(c *clientConfig) {
		c.retrieval = cfg
	}
}

// WithPdfium enables PDF text extraction through the pdfium runtime.
// Without it PDF documents go through the heuristic extractor, which
// handles uncompressed text streams only.
func WithPdfium() Option {
	return func(c *clientConfig) {
		c.pdfiumEnabled = true
	}
}

// WithDataDir sets the data directory for blob and database storage.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithBlobDir sets the directory where uploaded document content is stored.
// If not specified, defaults to {dataDir}/blobs.
func WithBlobDir(dir string) Option {
	return func(c *clientConfig) {
		c.blobDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithWorkerPollPeriod sets how often the background worker checks for new
// tasks. Defaults to 1 second. Lower values speed up task processing at the
// cost of more frequent polling, useful in tests.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		c.workerPollPeriod = d
	}
}

// WithSkipProviderValidation skips the handler coverage validation.
// This is intended for testing only.
func WithSkipProviderValidation() Option {
	return func(c *clientConfig) {
		c.skipProviderValidation = true
	}
}

// WithPeriodicSyncConfig sets the periodic sync configuration.
func WithPeriodicSyncConfig(cfg config.PeriodicSyncConfig) Option {
	return func(c *clientConfig) {
		c.periodicSync = cfg
	}
}

// WithReportingConfig sets the progress reporting configuration. The log
// time interval throttles progress log lines per task.
func WithReportingConfig(cfg config.ReportingConfig) Option {
	return func(c *clientConfig) {
		c.reporting = cfg
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}

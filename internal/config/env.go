// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.dokit
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/dokit.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// SkipProviderValidation skips provider requirement validation at startup.
	// Env: SKIP_PROVIDER_VALIDATION (default: false)
	// WARNING: For testing only.
	SkipProviderValidation bool `envconfig:"SKIP_PROVIDER_VALIDATION" default:"false"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// EmbeddingEndpoint configures an external embedding service. When no
	// model is set the built-in hashing embedder is used.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// PeriodicSync configures periodic retry of unfinished ingestions.
	PeriodicSync PeriodicSyncEnv `envconfig:"PERIODIC_SYNC"`

	// Reporting configures progress reporting.
	Reporting ReportingEnv `envconfig:"REPORTING"`

	// Retrieval configures search behaviour.
	Retrieval RetrievalEnv `envconfig:"RETRIEVAL"`

	// Chunking configures text splitting.
	Chunking ChunkingEnv `envconfig:"CHUNKING"`

	// Embedding configures the embedding pipeline.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 5)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"5"`

	// HTTPCacheDir is the directory for caching HTTP responses to disk.
	// When set, POST request/response pairs are cached to avoid repeated API calls.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// PdfiumEnabled controls whether PDF extraction uses the pdfium runtime.
	// When false the heuristic scanner is used for all PDFs.
	// Env: PDFIUM_ENABLED (default: true)
	PdfiumEnabled bool `envconfig:"PDFIUM_ENABLED" default:"true"`
}

// EndpointEnv holds environment configuration for an embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., openai/text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxBatchChars is the maximum total characters per embedding batch.
	// Env: *_MAX_BATCH_CHARS (default: 24000)
	MaxBatchChars int `envconfig:"MAX_BATCH_CHARS" default:"24000"`
}

// PeriodicSyncEnv holds environment configuration for periodic sync.
type PeriodicSyncEnv struct {
	// Enabled controls whether periodic sync is enabled.
	// Env: PERIODIC_SYNC_ENABLED (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// IntervalSeconds is how old an unfinished ingestion must be before
	// it is retried.
	// Env: PERIODIC_SYNC_INTERVAL_SECONDS (default: 1800)
	IntervalSeconds float64 `envconfig:"INTERVAL_SECONDS" default:"1800"`

	// RetryAttempts is the number of retry attempts.
	// Env: PERIODIC_SYNC_RETRY_ATTEMPTS (default: 3)
	RetryAttempts int `envconfig:"RETRY_ATTEMPTS" default:"3"`
}

// ReportingEnv holds environment configuration for reporting.
type ReportingEnv struct {
	// LogTimeInterval is the logging interval in seconds.
	// Env: REPORTING_LOG_TIME_INTERVAL (default: 5)
	LogTimeInterval float64 `envconfig:"LOG_TIME_INTERVAL" default:"5"`
}

// RetrievalEnv holds environment configuration for search behaviour.
type RetrievalEnv struct {
	// MinScore is the combined score below which results are dropped.
	// Env: RETRIEVAL_MIN_SCORE (default: 0.05)
	MinScore float64 `envconfig:"MIN_SCORE" default:"0.05"`

	// SnippetLength is the snippet truncation length in characters.
	// Env: RETRIEVAL_SNIPPET_LENGTH (default: 300)
	SnippetLength int `envconfig:"SNIPPET_LENGTH" default:"300"`

	// MaxLimit is the hard cap on requested result counts.
	// Env: RETRIEVAL_MAX_LIMIT (default: 50)
	MaxLimit int `envconfig:"MAX_LIMIT" default:"50"`
}

// ChunkingEnv holds environment configuration for text splitting.
type ChunkingEnv struct {
	// ChunkSize is the target chunk size in characters.
	// Env: CHUNKING_CHUNK_SIZE (default: 1000)
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"1000"`

	// ChunkOverlap is the overlap between consecutive chunks.
	// Env: CHUNKING_CHUNK_OVERLAP (default: 200)
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	// MinChunkLength is the length below which chunks are discarded.
	// Env: CHUNKING_MIN_CHUNK_LENGTH (default: 50)
	MinChunkLength int `envconfig:"MIN_CHUNK_LENGTH" default:"50"`
}

// EmbeddingEnv holds environment configuration for the embedding pipeline.
type EmbeddingEnv struct {
	// Dimension is the embedding vector length.
	// Env: EMBEDDING_DIMENSION (default: 256)
	Dimension int `envconfig:"DIMENSION" default:"256"`

	// BatchSize is the number of chunks embedded and inserted per batch.
	// Env: EMBEDDING_BATCH_SIZE (default: 20)
	BatchSize int `envconfig:"BATCH_SIZE" default:"20"`

	// StopWordsFile is the path to a YAML stop word list override.
	// Env: EMBEDDING_STOP_WORDS_FILE
	StopWordsFile string `envconfig:"STOP_WORDS_FILE"`
}

// LoadFromEnv loads configuration from environment variables.
// It uses no prefix, so variables are read as DATA_DIR, DB_URL, etc.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "DOKIT" would require DOKIT_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize replaces out-of-range numeric values with their defaults.
func (e EnvConfig) Normalize() EnvConfig {
	if e.Port <= 0 || e.Port > 65535 {
		e.Port = DefaultPort
	}
	if e.SearchLimit <= 0 {
		e.SearchLimit = DefaultSearchLimit
	}
	if e.Retrieval.MaxLimit > 0 && e.SearchLimit > e.Retrieval.MaxLimit {
		e.SearchLimit = e.Retrieval.MaxLimit
	}
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	// Apply overrides from environment
	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	cfg = applyOption(cfg, WithSkipProviderValidation(e.SkipProviderValidation))

	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}

	// Embedding endpoint
	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	// Periodic sync config
	cfg = applyOption(cfg, WithPeriodicSyncConfig(e.PeriodicSync.ToPeriodicSyncConfig()))

	// Reporting config
	cfg = applyOption(cfg, WithReportingConfig(e.Reporting.ToReportingConfig()))

	// Retrieval config
	cfg = applyOption(cfg, WithRetrievalConfig(e.Retrieval.ToRetrievalConfig(e.SearchLimit)))

	// Chunking config
	cfg = applyOption(cfg, WithChunkingConfig(e.Chunking.ToChunkingConfig()))

	// Embedding config
	cfg = applyOption(cfg, WithEmbeddingConfig(e.Embedding.ToEmbeddingConfig()))

	// HTTP cache directory
	if e.HTTPCacheDir != "" {
		cfg = applyOption(cfg, WithHTTPCacheDir(e.HTTPCacheDir))
	}

	cfg = applyOption(cfg, WithPdfiumEnabled(e.PdfiumEnabled))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxBatchChars(e.MaxBatchChars),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

// ToPeriodicSyncConfig converts PeriodicSyncEnv to PeriodicSyncConfig.
func (p PeriodicSyncEnv) ToPeriodicSyncConfig() PeriodicSyncConfig {
	return NewPeriodicSyncConfig().
		WithEnabled(p.Enabled).
		WithIntervalSeconds(p.IntervalSeconds).
		WithRetryAttempts(p.RetryAttempts)
}

// ToReportingConfig converts ReportingEnv to ReportingConfig.
func (r ReportingEnv) ToReportingConfig() ReportingConfig {
	return NewReportingConfig().
		WithLogTimeInterval(time.Duration(r.LogTimeInterval * float64(time.Second)))
}

// ToRetrievalConfig converts RetrievalEnv to RetrievalConfig. The default
// result limit comes from the top-level SEARCH_LIMIT variable.
func (r RetrievalEnv) ToRetrievalConfig(searchLimit int) RetrievalConfig {
	return NewRetrievalConfig().
		WithSearchLimitValue(searchLimit).
		WithMaxLimit(r.MaxLimit).
		WithMinScore(r.MinScore).
		WithSnippetLength(r.SnippetLength)
}

// ToChunkingConfig converts ChunkingEnv to ChunkingConfig.
func (c ChunkingEnv) ToChunkingConfig() ChunkingConfig {
	return NewChunkingConfig().
		WithChunkSize(c.ChunkSize).
		WithChunkOverlap(c.ChunkOverlap).
		WithMinChunkLength(c.MinChunkLength)
}

// ToEmbeddingConfig converts EmbeddingEnv to EmbeddingConfig.
func (e EmbeddingEnv) ToEmbeddingConfig() EmbeddingConfig {
	return NewEmbeddingConfig().
		WithDimension(e.Dimension).
		WithBatchSize(e.BatchSize).
		WithStopWordsFile(e.StopWordsFile)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                      = "0.0.0.0"
	DefaultPort                      = 8080
	DefaultLogLevel                  = "INFO"
	DefaultSearchLimit               = 5
	MaxSearchLimit                   = 50
	DefaultMinScore                  = 0.05
	DefaultSnippetLength             = 300
	DefaultEmbeddingDimension        = 256
	DefaultEmbedBatchSize            = 20
	DefaultChunkSize                 = 1000
	DefaultChunkOverlap              = 200
	DefaultMinChunkLength            = 50
	DefaultBlobSubdir                = "blobs"
	DefaultModelsSubdir              = "models"
	DefaultEndpointTimeout           = 60 * time.Second
	DefaultEndpointMaxRetries        = 5
	DefaultEndpointInitialDelay      = 2 * time.Second
	DefaultEndpointBackoffFactor     = 2.0
	DefaultEndpointMaxBatchChars     = 24000
	DefaultPeriodicSyncInterval      = 1800.0 // seconds
	DefaultPeriodicSyncCheckInterval = 10.0   // seconds
	DefaultPeriodicSyncRetries       = 3
	DefaultReportingInterval         = 5 * time.Second
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// ReportingConfig configures progress reporting.
type ReportingConfig struct {
	logTimeInterval time.Duration
}

// NewReportingConfig creates a new ReportingConfig with defaults.
func NewReportingConfig() ReportingConfig {
	return ReportingConfig{
		logTimeInterval: DefaultReportingInterval,
	}
}

// LogTimeInterval returns the time interval for logging progress.
func (r ReportingConfig) LogTimeInterval() time.Duration {
	return r.logTimeInterval
}

// WithLogTimeInterval returns a new config with the specified interval.
func (r ReportingConfig) WithLogTimeInterval(d time.Duration) ReportingConfig {
	r.logTimeInterval = d
	return r
}

// Endpoint configures an embedding service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxBatchChars int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxBatchChars: DefaultEndpointMaxBatchChars,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxBatchChars returns the maximum total characters per embedding batch.
func (e Endpoint) MaxBatchChars() int { return e.maxBatchChars }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxBatchChars sets the maximum total characters per embedding batch.
func WithMaxBatchChars(n int) EndpointOption {
	return func(e *Endpoint) { e.maxBatchChars = n }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// PeriodicSyncConfig configures periodic reconciliation of documents whose
// ingestion never completed.
type PeriodicSyncConfig struct {
	enabled              bool
	intervalSeconds      float64
	checkIntervalSeconds float64
	retryAttempts        int
}

// NewPeriodicSyncConfig creates a new PeriodicSyncConfig with defaults.
func NewPeriodicSyncConfig() PeriodicSyncConfig {
	return PeriodicSyncConfig{
		enabled:              true,
		intervalSeconds:      DefaultPeriodicSyncInterval,
		checkIntervalSeconds: DefaultPeriodicSyncCheckInterval,
		retryAttempts:        DefaultPeriodicSyncRetries,
	}
}

// Enabled returns whether periodic sync is enabled.
func (p PeriodicSyncConfig) Enabled() bool { return p.enabled }

// Interval returns how old an unfinished ingestion must be before it is
// retried.
func (p PeriodicSyncConfig) Interval() time.Duration {
	return time.Duration(p.intervalSeconds * float64(time.Second))
}

// CheckInterval returns how often to check for documents due for retry.
func (p PeriodicSyncConfig) CheckInterval() time.Duration {
	return time.Duration(p.checkIntervalSeconds * float64(time.Second))
}

// RetryAttempts returns the retry count.
func (p PeriodicSyncConfig) RetryAttempts() int { return p.retryAttempts }

// WithEnabled returns a new config with the specified enabled state.
func (p PeriodicSyncConfig) WithEnabled(enabled bool) PeriodicSyncConfig {
	p.enabled = enabled
	return p
}

// WithIntervalSeconds returns a new config with the specified interval.
func (p PeriodicSyncConfig) WithIntervalSeconds(seconds float64) PeriodicSyncConfig {
	p.intervalSeconds = seconds
	return p
}

// WithCheckIntervalSeconds returns a new config with the specified check interval.
func (p PeriodicSyncConfig) WithCheckIntervalSeconds(seconds float64) PeriodicSyncConfig {
	p.checkIntervalSeconds = seconds
	return p
}

// WithRetryAttempts returns a new config with the specified retry count.
func (p PeriodicSyncConfig) WithRetryAttempts(attempts int) PeriodicSyncConfig {
	p.retryAttempts = attempts
	return p
}

// RetrievalConfig configures search behaviour.
type RetrievalConfig struct {
	searchLimit   int
	maxLimit      int
	minScore      float64
	snippetLength int
}

// NewRetrievalConfig creates a new RetrievalConfig with defaults.
func NewRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		searchLimit:   DefaultSearchLimit,
		maxLimit:      MaxSearchLimit,
		minScore:      DefaultMinScore,
		snippetLength: DefaultSnippetLength,
	}
}

// SearchLimit returns the default number of search results.
func (r RetrievalConfig) SearchLimit() int { return r.searchLimit }

// MaxLimit returns the hard cap on requested result counts.
func (r RetrievalConfig) MaxLimit() int { return r.maxLimit }

// MinScore returns the combined score below which results are dropped.
func (r RetrievalConfig) MinScore() float64 { return r.minScore }

// SnippetLength returns the snippet truncation length in characters.
func (r RetrievalConfig) SnippetLength() int { return r.snippetLength }

// WithSearchLimitValue returns a new config with the specified default limit.
func (r RetrievalConfig) WithSearchLimitValue(n int) RetrievalConfig {
	if n > 0 {
		r.searchLimit = n
	}
	return r
}

// WithMaxLimit returns a new config with the specified result cap.
func (r RetrievalConfig) WithMaxLimit(n int) RetrievalConfig {
	if n > 0 {
		r.maxLimit = n
	}
	return r
}

// WithMinScore returns a new config with the specified score threshold.
func (r RetrievalConfig) WithMinScore(score float64) RetrievalConfig {
	if score >= 0 {
		r.minScore = score
	}
	return r
}

// WithSnippetLength returns a new config with the specified snippet length.
func (r RetrievalConfig) WithSnippetLength(n int) RetrievalConfig {
	if n > 0 {
		r.snippetLength = n
	}
	return r
}

// ChunkingConfig configures how extracted text is split into chunks.
type ChunkingConfig struct {
	chunkSize      int
	chunkOverlap   int
	minChunkLength int
}

// NewChunkingConfig creates a new ChunkingConfig with defaults.
func NewChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		chunkSize:      DefaultChunkSize,
		chunkOverlap:   DefaultChunkOverlap,
		minChunkLength: DefaultMinChunkLength,
	}
}

// ChunkSize returns the target chunk size in characters.
func (c ChunkingConfig) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the overlap between consecutive chunks.
func (c ChunkingConfig) ChunkOverlap() int { return c.chunkOverlap }

// MinChunkLength returns the length below which chunks are discarded.
func (c ChunkingConfig) MinChunkLength() int { return c.minChunkLength }

// WithChunkSize returns a new config with the specified chunk size.
func (c ChunkingConfig) WithChunkSize(n int) ChunkingConfig {
	if n > 0 {
		c.chunkSize = n
	}
	return c
}

// WithChunkOverlap returns a new config with the specified overlap.
func (c ChunkingConfig) WithChunkOverlap(n int) ChunkingConfig {
	if n >= 0 {
		c.chunkOverlap = n
	}
	return c
}

// WithMinChunkLength returns a new config with the specified minimum length.
func (c ChunkingConfig) WithMinChunkLength(n int) ChunkingConfig {
	if n >= 0 {
		c.minChunkLength = n
	}
	return c
}

// EmbeddingConfig configures the embedding pipeline. Dimension and stop
// words are explicit configuration so the embedder carries no hidden
// global state.
type EmbeddingConfig struct {
	dimension     int
	batchSize     int
	stopWordsFile string
}

// NewEmbeddingConfig creates a new EmbeddingConfig with defaults.
func NewEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		dimension: DefaultEmbeddingDimension,
		batchSize: DefaultEmbedBatchSize,
	}
}

// Dimension returns the embedding vector length.
func (e EmbeddingConfig) Dimension() int { return e.dimension }

// BatchSize returns the number of chunks embedded and inserted per batch.
func (e EmbeddingConfig) BatchSize() int { return e.batchSize }

// StopWordsFile returns the path to an optional stop word list override.
func (e EmbeddingConfig) StopWordsFile() string { return e.stopWordsFile }

// WithDimension returns a new config with the specified vector length.
func (e EmbeddingConfig) WithDimension(n int) EmbeddingConfig {
	if n > 0 {
		e.dimension = n
	}
	return e
}

// WithBatchSize returns a new config with the specified batch size.
func (e EmbeddingConfig) WithBatchSize(n int) EmbeddingConfig {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// WithStopWordsFile returns a new config with the specified override path.
func (e EmbeddingConfig) WithStopWordsFile(path string) EmbeddingConfig {
	e.stopWordsFile = path
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host                   string
	port                   int
	dataDir                string
	dbURL                  string
	logLevel               string
	logFormat              LogFormat
	skipProviderValidation bool
	embeddingEndpoint      *Endpoint
	periodicSync           PeriodicSyncConfig
	apiKeys                []string
	reporting              ReportingConfig
	retrieval              RetrievalConfig
	chunking               ChunkingConfig
	embedding              EmbeddingConfig
	httpCacheDir           string
	pdfiumEnabled          bool
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dokit"
	}
	return filepath.Join(home, ".dokit")
}

// DefaultBlobDir returns the default blob directory for a given data directory.
func DefaultBlobDir(dataDir string) string {
	return filepath.Join(dataDir, DefaultBlobSubdir)
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// PrepareBlobDir resolves the blob directory (defaulting if empty) and creates it.
func PrepareBlobDir(blobDir, dataDir string) (string, error) {
	if blobDir == "" {
		blobDir = DefaultBlobDir(dataDir)
	}
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}
	return blobDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:          DefaultHost,
		port:          DefaultPort,
		dataDir:       dataDir,
		dbURL:         "sqlite:///" + filepath.Join(dataDir, "dokit.db"),
		logLevel:      DefaultLogLevel,
		logFormat:     LogFormatPretty,
		periodicSync:  NewPeriodicSyncConfig(),
		apiKeys:       []string{},
		reporting:     NewReportingConfig(),
		retrieval:     NewRetrievalConfig(),
		chunking:      NewChunkingConfig(),
		embedding:     NewEmbeddingConfig(),
		pdfiumEnabled: true,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// SkipProviderValidation returns whether to skip provider validation at startup.
// This is intended for testing only.
func (c AppConfig) SkipProviderValidation() bool { return c.skipProviderValidation }

// EmbeddingEndpoint returns the embedding endpoint config, or nil when the
// built-in hashing embedder is used.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// PeriodicSync returns the periodic sync config.
func (c AppConfig) PeriodicSync() PeriodicSyncConfig { return c.periodicSync }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// Reporting returns the reporting config.
func (c AppConfig) Reporting() ReportingConfig { return c.reporting }

// Retrieval returns the retrieval config.
func (c AppConfig) Retrieval() RetrievalConfig { return c.retrieval }

// Chunking returns the chunking config.
func (c AppConfig) Chunking() ChunkingConfig { return c.chunking }

// Embedding returns the embedding config.
func (c AppConfig) Embedding() EmbeddingConfig { return c.embedding }

// HTTPCacheDir returns the directory for caching HTTP responses to disk.
// Empty means caching is disabled.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// PdfiumEnabled returns whether the pdfium PDF extractor is enabled.
// When disabled, PDF text extraction uses the heuristic scanner only.
func (c AppConfig) PdfiumEnabled() bool { return c.pdfiumEnabled }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.retrieval.SearchLimit() }

// BlobDir returns the blob directory path.
func (c AppConfig) BlobDir() string {
	return filepath.Join(c.dataDir, DefaultBlobSubdir)
}

// ModelsDir returns the directory for downloaded embedding models.
func (c AppConfig) ModelsDir() string {
	return filepath.Join(c.dataDir, DefaultModelsSubdir)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Update default DB URL when data dir changes
		if c.dbURL == "" || strings.Contains(c.dbURL, "dokit.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "dokit.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithSkipProviderValidation sets whether to skip provider validation.
// WARNING: For testing only.
func WithSkipProviderValidation(skip bool) AppConfigOption {
	return func(c *AppConfig) { c.skipProviderValidation = skip }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithPeriodicSyncConfig sets the periodic sync config.
func WithPeriodicSyncConfig(p PeriodicSyncConfig) AppConfigOption {
	return func(c *AppConfig) { c.periodicSync = p }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithReportingConfig sets the reporting config.
func WithReportingConfig(r ReportingConfig) AppConfigOption {
	return func(c *AppConfig) { c.reporting = r }
}

// WithSearchLimit sets the default search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		c.retrieval = c.retrieval.WithSearchLimitValue(n)
	}
}

// WithRetrievalConfig sets the retrieval config.
func WithRetrievalConfig(r RetrievalConfig) AppConfigOption {
	return func(c *AppConfig) { c.retrieval = r }
}

// WithChunkingConfig sets the chunking config.
func WithChunkingConfig(ch ChunkingConfig) AppConfigOption {
	return func(c *AppConfig) { c.chunking = ch }
}

// WithEmbeddingConfig sets the embedding config.
func WithEmbeddingConfig(e EmbeddingConfig) AppConfigOption {
	return func(c *AppConfig) { c.embedding = e }
}

// WithHTTPCacheDir sets the directory for caching HTTP responses.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithPdfiumEnabled sets whether the pdfium PDF extractor is used.
func WithPdfiumEnabled(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.pdfiumEnabled = enabled }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
// This copies all fields from the receiver and then applies the options,
// making it safe to use when adding new fields to AppConfig.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("blob_dir", c.BlobDir()),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_base_url", endpointBaseURL(c.embeddingEndpoint)),
		slog.String("embedding_model", endpointModel(c.embeddingEndpoint)),
		slog.Int("embedding_dimension", c.embedding.Dimension()),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Bool("skip_provider_validation", c.skipProviderValidation),
		slog.Bool("periodic_sync_enabled", c.periodicSync.Enabled()),
		slog.Duration("periodic_sync_interval", c.periodicSync.Interval()),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if len(c.dbURL) >= 7 && c.dbURL[:7] == "sqlite:" {
		return c.dbURL
	}
	return "postgres://***@***"
}

func endpointBaseURL(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.BaseURL()
}

func endpointModel(e *Endpoint) string {
	if e == nil {
		return "(builtin hash)"
	}
	return e.Model()
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

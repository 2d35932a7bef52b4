package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConstants(t *testing.T) {
	if DefaultSearchLimit != 5 {
		t.Errorf("DefaultSearchLimit = %v, want 5", DefaultSearchLimit)
	}
	if MaxSearchLimit != 50 {
		t.Errorf("MaxSearchLimit = %v, want 50", MaxSearchLimit)
	}
	if DefaultHost != "0.0.0.0" {
		t.Errorf("DefaultHost = %v, want '0.0.0.0'", DefaultHost)
	}
	if DefaultPort != 8080 {
		t.Errorf("DefaultPort = %v, want 8080", DefaultPort)
	}
	if DefaultLogLevel != "INFO" {
		t.Errorf("DefaultLogLevel = %v, want 'INFO'", DefaultLogLevel)
	}
	if DefaultBlobSubdir != "blobs" {
		t.Errorf("DefaultBlobSubdir = %v, want 'blobs'", DefaultBlobSubdir)
	}
	if DefaultMinScore != 0.05 {
		t.Errorf("DefaultMinScore = %v, want 0.05", DefaultMinScore)
	}
	if DefaultSnippetLength != 300 {
		t.Errorf("DefaultSnippetLength = %v, want 300", DefaultSnippetLength)
	}
	if DefaultEmbeddingDimension != 256 {
		t.Errorf("DefaultEmbeddingDimension = %v, want 256", DefaultEmbeddingDimension)
	}
	if DefaultEmbedBatchSize != 20 {
		t.Errorf("DefaultEmbedBatchSize = %v, want 20", DefaultEmbedBatchSize)
	}
	if DefaultChunkSize != 1000 {
		t.Errorf("DefaultChunkSize = %v, want 1000", DefaultChunkSize)
	}
	if DefaultChunkOverlap != 200 {
		t.Errorf("DefaultChunkOverlap = %v, want 200", DefaultChunkOverlap)
	}
	if DefaultMinChunkLength != 50 {
		t.Errorf("DefaultMinChunkLength = %v, want 50", DefaultMinChunkLength)
	}
	if DefaultEndpointTimeout != 60*time.Second {
		t.Errorf("DefaultEndpointTimeout = %v, want 60s", DefaultEndpointTimeout)
	}
	if DefaultEndpointMaxRetries != 5 {
		t.Errorf("DefaultEndpointMaxRetries = %v, want 5", DefaultEndpointMaxRetries)
	}
	if DefaultEndpointInitialDelay != 2*time.Second {
		t.Errorf("DefaultEndpointInitialDelay = %v, want 2s", DefaultEndpointInitialDelay)
	}
	if DefaultEndpointBackoffFactor != 2.0 {
		t.Errorf("DefaultEndpointBackoffFactor = %v, want 2.0", DefaultEndpointBackoffFactor)
	}
	if DefaultEndpointMaxBatchChars != 24000 {
		t.Errorf("DefaultEndpointMaxBatchChars = %v, want 24000", DefaultEndpointMaxBatchChars)
	}
	if DefaultPeriodicSyncInterval != 1800.0 {
		t.Errorf("DefaultPeriodicSyncInterval = %v, want 1800.0", DefaultPeriodicSyncInterval)
	}
	if DefaultPeriodicSyncRetries != 3 {
		t.Errorf("DefaultPeriodicSyncRetries = %v, want 3", DefaultPeriodicSyncRetries)
	}
	if DefaultReportingInterval != 5*time.Second {
		t.Errorf("DefaultReportingInterval = %v, want 5s", DefaultReportingInterval)
	}
}

func TestReportingConfig(t *testing.T) {
	cfg := NewReportingConfig()

	if cfg.LogTimeInterval() != DefaultReportingInterval {
		t.Errorf("LogTimeInterval() = %v, want %v", cfg.LogTimeInterval(), DefaultReportingInterval)
	}

	cfg = cfg.WithLogTimeInterval(10 * time.Second)
	if cfg.LogTimeInterval() != 10*time.Second {
		t.Errorf("LogTimeInterval() = %v, want 10s", cfg.LogTimeInterval())
	}
}

func TestEndpoint_Defaults(t *testing.T) {
	e := NewEndpoint()

	if e.Timeout() != DefaultEndpointTimeout {
		t.Errorf("Timeout() = %v, want %v", e.Timeout(), DefaultEndpointTimeout)
	}
	if e.MaxRetries() != DefaultEndpointMaxRetries {
		t.Errorf("MaxRetries() = %v, want %v", e.MaxRetries(), DefaultEndpointMaxRetries)
	}
	if e.InitialDelay() != DefaultEndpointInitialDelay {
		t.Errorf("InitialDelay() = %v, want %v", e.InitialDelay(), DefaultEndpointInitialDelay)
	}
	if e.BackoffFactor() != DefaultEndpointBackoffFactor {
		t.Errorf("BackoffFactor() = %v, want %v", e.BackoffFactor(), DefaultEndpointBackoffFactor)
	}
	if e.MaxBatchChars() != DefaultEndpointMaxBatchChars {
		t.Errorf("MaxBatchChars() = %v, want %v", e.MaxBatchChars(), DefaultEndpointMaxBatchChars)
	}
	if e.IsConfigured() {
		t.Error("IsConfigured() should be false for default endpoint")
	}
}

func TestEndpoint_WithOptions(t *testing.T) {
	e := NewEndpointWithOptions(
		WithBaseURL("https://api.example.com"),
		WithModel("text-embedding-3-small"),
		WithAPIKey("test-key"),
		WithTimeout(30*time.Second),
		WithMaxRetries(3),
	)

	if e.BaseURL() != "https://api.example.com" {
		t.Errorf("BaseURL() = %v, want 'https://api.example.com'", e.BaseURL())
	}
	if e.Model() != "text-embedding-3-small" {
		t.Errorf("Model() = %v, want 'text-embedding-3-small'", e.Model())
	}
	if e.APIKey() != "test-key" {
		t.Errorf("APIKey() = %v, want 'test-key'", e.APIKey())
	}
	if e.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", e.Timeout())
	}
	if e.MaxRetries() != 3 {
		t.Errorf("MaxRetries() = %v, want 3", e.MaxRetries())
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() should be true when model is set")
	}
}

func TestRetrievalConfig(t *testing.T) {
	cfg := NewRetrievalConfig()

	if cfg.SearchLimit() != DefaultSearchLimit {
		t.Errorf("SearchLimit() = %v, want %v", cfg.SearchLimit(), DefaultSearchLimit)
	}
	if cfg.MaxLimit() != MaxSearchLimit {
		t.Errorf("MaxLimit() = %v, want %v", cfg.MaxLimit(), MaxSearchLimit)
	}
	if cfg.MinScore() != DefaultMinScore {
		t.Errorf("MinScore() = %v, want %v", cfg.MinScore(), DefaultMinScore)
	}
	if cfg.SnippetLength() != DefaultSnippetLength {
		t.Errorf("SnippetLength() = %v, want %v", cfg.SnippetLength(), DefaultSnippetLength)
	}

	cfg = cfg.WithSearchLimitValue(8).WithMaxLimit(100).WithMinScore(0.1).WithSnippetLength(500)
	if cfg.SearchLimit() != 8 {
		t.Errorf("SearchLimit() = %v, want 8", cfg.SearchLimit())
	}
	if cfg.MaxLimit() != 100 {
		t.Errorf("MaxLimit() = %v, want 100", cfg.MaxLimit())
	}
	if cfg.MinScore() != 0.1 {
		t.Errorf("MinScore() = %v, want 0.1", cfg.MinScore())
	}
	if cfg.SnippetLength() != 500 {
		t.Errorf("SnippetLength() = %v, want 500", cfg.SnippetLength())
	}
}

func TestRetrievalConfig_IgnoresInvalidValues(t *testing.T) {
	cfg := NewRetrievalConfig().
		WithSearchLimitValue(0).
		WithMinScore(-1).
		WithSnippetLength(-5)

	if cfg.SearchLimit() != DefaultSearchLimit {
		t.Errorf("SearchLimit() = %v, want default %v", cfg.SearchLimit(), DefaultSearchLimit)
	}
	if cfg.MinScore() != DefaultMinScore {
		t.Errorf("MinScore() = %v, want default %v", cfg.MinScore(), DefaultMinScore)
	}
	if cfg.SnippetLength() != DefaultSnippetLength {
		t.Errorf("SnippetLength() = %v, want default %v", cfg.SnippetLength(), DefaultSnippetLength)
	}
}

func TestChunkingConfig(t *testing.T) {
	cfg := NewChunkingConfig()

	if cfg.ChunkSize() != DefaultChunkSize {
		t.Errorf("ChunkSize() = %v, want %v", cfg.ChunkSize(), DefaultChunkSize)
	}
	if cfg.ChunkOverlap() != DefaultChunkOverlap {
		t.Errorf("ChunkOverlap() = %v, want %v", cfg.ChunkOverlap(), DefaultChunkOverlap)
	}
	if cfg.MinChunkLength() != DefaultMinChunkLength {
		t.Errorf("MinChunkLength() = %v, want %v", cfg.MinChunkLength(), DefaultMinChunkLength)
	}

	cfg = cfg.WithChunkSize(500).WithChunkOverlap(0).WithMinChunkLength(10)
	if cfg.ChunkSize() != 500 {
		t.Errorf("ChunkSize() = %v, want 500", cfg.ChunkSize())
	}
	if cfg.ChunkOverlap() != 0 {
		t.Errorf("ChunkOverlap() = %v, want 0", cfg.ChunkOverlap())
	}
	if cfg.MinChunkLength() != 10 {
		t.Errorf("MinChunkLength() = %v, want 10", cfg.MinChunkLength())
	}
}

func TestEmbeddingConfig(t *testing.T) {
	cfg := NewEmbeddingConfig()

	if cfg.Dimension() != DefaultEmbeddingDimension {
		t.Errorf("Dimension() = %v, want %v", cfg.Dimension(), DefaultEmbeddingDimension)
	}
	if cfg.BatchSize() != DefaultEmbedBatchSize {
		t.Errorf("BatchSize() = %v, want %v", cfg.BatchSize(), DefaultEmbedBatchSize)
	}
	if cfg.StopWordsFile() != "" {
		t.Errorf("StopWordsFile() = %v, want empty", cfg.StopWordsFile())
	}

	cfg = cfg.WithDimension(512).WithBatchSize(50).WithStopWordsFile("/etc/stopwords.yaml")
	if cfg.Dimension() != 512 {
		t.Errorf("Dimension() = %v, want 512", cfg.Dimension())
	}
	if cfg.BatchSize() != 50 {
		t.Errorf("BatchSize() = %v, want 50", cfg.BatchSize())
	}
	if cfg.StopWordsFile() != "/etc/stopwords.yaml" {
		t.Errorf("StopWordsFile() = %v, want '/etc/stopwords.yaml'", cfg.StopWordsFile())
	}
}

func TestPeriodicSyncConfig(t *testing.T) {
	cfg := NewPeriodicSyncConfig()

	if !cfg.Enabled() {
		t.Error("Enabled() should be true by default")
	}
	expectedInterval := time.Duration(DefaultPeriodicSyncInterval * float64(time.Second))
	if cfg.Interval() != expectedInterval {
		t.Errorf("Interval() = %v, want %v", cfg.Interval(), expectedInterval)
	}
	if cfg.RetryAttempts() != DefaultPeriodicSyncRetries {
		t.Errorf("RetryAttempts() = %v, want %v", cfg.RetryAttempts(), DefaultPeriodicSyncRetries)
	}

	cfg = cfg.WithEnabled(false).WithIntervalSeconds(3600).WithRetryAttempts(5)
	if cfg.Enabled() {
		t.Error("Enabled() should be false")
	}
	if cfg.Interval() != 1*time.Hour {
		t.Errorf("Interval() = %v, want 1h", cfg.Interval())
	}
	if cfg.RetryAttempts() != 5 {
		t.Errorf("RetryAttempts() = %v, want 5", cfg.RetryAttempts())
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	if cfg.Host() != DefaultHost {
		t.Errorf("Host() = %v, want '%v'", cfg.Host(), DefaultHost)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %v, want %v", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %v, want '%v'", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.LogFormat() != LogFormatPretty {
		t.Errorf("LogFormat() = %v, want 'pretty'", cfg.LogFormat())
	}
	if cfg.EmbeddingEndpoint() != nil {
		t.Error("EmbeddingEndpoint() should be nil by default")
	}
	if cfg.SearchLimit() != DefaultSearchLimit {
		t.Errorf("SearchLimit() = %v, want %v", cfg.SearchLimit(), DefaultSearchLimit)
	}
	if cfg.Retrieval().MinScore() != DefaultMinScore {
		t.Errorf("Retrieval().MinScore() = %v, want %v", cfg.Retrieval().MinScore(), DefaultMinScore)
	}
	if cfg.Chunking().ChunkSize() != DefaultChunkSize {
		t.Errorf("Chunking().ChunkSize() = %v, want %v", cfg.Chunking().ChunkSize(), DefaultChunkSize)
	}
	if cfg.Embedding().Dimension() != DefaultEmbeddingDimension {
		t.Errorf("Embedding().Dimension() = %v, want %v", cfg.Embedding().Dimension(), DefaultEmbeddingDimension)
	}
	if cfg.HTTPCacheDir() != "" {
		t.Errorf("HTTPCacheDir() = %v, want empty", cfg.HTTPCacheDir())
	}
	if !cfg.PdfiumEnabled() {
		t.Error("PdfiumEnabled() should be true by default")
	}
}

func TestAppConfig_WithOptions(t *testing.T) {
	embeddingEndpoint := NewEndpointWithOptions(WithModel("embed-model"))

	cfg := NewAppConfigWithOptions(
		WithDataDir("/custom/data"),
		WithDBURL("postgres://localhost/dokit"),
		WithLogLevel("DEBUG"),
		WithLogFormat(LogFormatJSON),
		WithEmbeddingEndpoint(embeddingEndpoint),
		WithAPIKeys([]string{"key1", "key2"}),
		WithSearchLimit(7),
		WithPdfiumEnabled(false),
	)

	if cfg.DataDir() != "/custom/data" {
		t.Errorf("DataDir() = %v, want '/custom/data'", cfg.DataDir())
	}
	if cfg.DBURL() != "postgres://localhost/dokit" {
		t.Errorf("DBURL() = %v, want 'postgres://localhost/dokit'", cfg.DBURL())
	}
	if cfg.LogLevel() != "DEBUG" {
		t.Errorf("LogLevel() = %v, want 'DEBUG'", cfg.LogLevel())
	}
	if cfg.LogFormat() != LogFormatJSON {
		t.Errorf("LogFormat() = %v, want 'json'", cfg.LogFormat())
	}
	if cfg.EmbeddingEndpoint() == nil {
		t.Error("EmbeddingEndpoint() should not be nil")
	}
	if len(cfg.APIKeys()) != 2 {
		t.Errorf("APIKeys() length = %v, want 2", len(cfg.APIKeys()))
	}
	if cfg.SearchLimit() != 7 {
		t.Errorf("SearchLimit() = %v, want 7", cfg.SearchLimit())
	}
	if cfg.PdfiumEnabled() {
		t.Error("PdfiumEnabled() should be false")
	}
}

func TestAppConfig_APIKeys_Copy(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithAPIKeys([]string{"key1"}))

	keys := cfg.APIKeys()
	keys[0] = "modified"

	if cfg.APIKeys()[0] == "modified" {
		t.Error("APIKeys() should return a copy")
	}
}

func TestAppConfig_Directories(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDataDir("/data"))

	if cfg.BlobDir() != "/data/blobs" {
		t.Errorf("BlobDir() = %v, want '/data/blobs'", cfg.BlobDir())
	}
	if cfg.ModelsDir() != "/data/models" {
		t.Errorf("ModelsDir() = %v, want '/data/models'", cfg.ModelsDir())
	}
}

func TestAppConfig_DataDirUpdatesDBURL(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDataDir("/custom"))

	// DB URL should be updated when only data dir is set
	expected := "sqlite:////custom/dokit.db"
	if cfg.DBURL() != expected {
		t.Errorf("DBURL() = %v, want %v", cfg.DBURL(), expected)
	}
}

func TestAppConfig_Apply(t *testing.T) {
	base := NewAppConfigWithOptions(WithDataDir("/base"), WithAPIKeys([]string{"k"}))
	derived := base.Apply(WithPort(9090))

	if derived.Port() != 9090 {
		t.Errorf("Port() = %v, want 9090", derived.Port())
	}
	if derived.DataDir() != "/base" {
		t.Errorf("DataDir() = %v, want '/base'", derived.DataDir())
	}
	if base.Port() != DefaultPort {
		t.Errorf("base Port() = %v, want %v (Apply must not mutate receiver)", base.Port(), DefaultPort)
	}
}

func TestParseAPIKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "single key",
			input:    "key1",
			expected: []string{"key1"},
		},
		{
			name:     "multiple keys",
			input:    "key1,key2,key3",
			expected: []string{"key1", "key2", "key3"},
		},
		{
			name:     "with whitespace",
			input:    "key1 , key2 , key3",
			expected: []string{"key1", "key2", "key3"},
		},
		{
			name:     "with empty entries",
			input:    "key1,,key2",
			expected: []string{"key1", "key2"},
		},
		{
			name:     "whitespace only entries",
			input:    "key1,  ,key2",
			expected: []string{"key1", "key2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseAPIKeys(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("ParseAPIKeys(%q) length = %v, want %v", tt.input, len(result), len(tt.expected))
				return
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("ParseAPIKeys(%q)[%d] = %v, want %v", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestLoadStopWords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stopwords.yaml")
	content := "stop_words:\n  - The\n  - '  and  '\n  - ''\n  - of\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write stop words file: %v", err)
	}

	words, err := LoadStopWords(path)
	if err != nil {
		t.Fatalf("LoadStopWords() error = %v", err)
	}
	expected := []string{"the", "and", "of"}
	if len(words) != len(expected) {
		t.Fatalf("LoadStopWords() length = %v, want %v", len(words), len(expected))
	}
	for i, w := range words {
		if w != expected[i] {
			t.Errorf("LoadStopWords()[%d] = %v, want %v", i, w, expected[i])
		}
	}
}

func TestLoadStopWords_EmptyPath(t *testing.T) {
	words, err := LoadStopWords("")
	if err != nil {
		t.Fatalf("LoadStopWords(\"\") error = %v", err)
	}
	if words != nil {
		t.Errorf("LoadStopWords(\"\") = %v, want nil", words)
	}
}

func TestLoadStopWords_MissingFile(t *testing.T) {
	_, err := LoadStopWords(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("LoadStopWords() should error for a missing file")
	}
}

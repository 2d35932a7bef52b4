package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/domain/search"
	"github.com/helixml/dokit/infrastructure/chunking"
	"github.com/helixml/dokit/infrastructure/provider"
	"github.com/helixml/dokit/internal/config"
)

// clientOptions returns the dokit.Option slice derived from the shared parts
// of AppConfig: database storage, embedding pipeline, chunking, retrieval,
// and PDF extraction. Callers append entrypoint-specific options (logger,
// API keys, periodic sync) before passing the full slice to dokit.New.
func clientOptions(cfg config.AppConfig) ([]dokit.Option, error) {
	var opts []dokit.Option

	opts = append(opts, storageOptions(cfg)...)

	embOpts, err := embeddingOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding config: %w", err)
	}
	opts = append(opts, embOpts...)

	opts = append(opts, chunkingOptions(cfg)...)
	opts = append(opts, dokit.WithRetrievalConfig(cfg.Retrieval()))
	opts = append(opts, dokit.WithReportingConfig(cfg.Reporting()))

	if cfg.PdfiumEnabled() {
		opts = append(opts, dokit.WithPdfium())
	}

	return opts, nil
}

// storageOptions returns the dokit.Option for the configured database backend.
func storageOptions(cfg config.AppConfig) []dokit.Option {
	dbURL := cfg.DBURL()

	if dbURL != "" && !isSQLite(dbURL) {
		return []dokit.Option{dokit.WithPostgres(dbURL)}
	}

	dbPath := cfg.DataDir() + "/dokit.db"
	if dbURL != "" && isSQLite(dbURL) {
		dbPath = strings.TrimPrefix(dbURL, "sqlite:///")
		if dbPath == dbURL {
			dbPath = strings.TrimPrefix(dbURL, "sqlite:")
		}
	}

	return []dokit.Option{dokit.WithSQLite(dbPath)}
}

// embeddingOptions returns the dokit.Options for the embedding pipeline.
// A configured embedding endpoint selects the OpenAI-compatible provider;
// the model name "local" selects the bundled ONNX runtime instead. Without
// an endpoint the built-in hash embedder runs with the configured dimension
// and stop words.
func embeddingOptions(cfg config.AppConfig) ([]dokit.Option, error) {
	emb := cfg.Embedding()

	opts := []dokit.Option{
		dokit.WithEmbeddingDimension(emb.Dimension()),
		dokit.WithEmbedBatchSize(emb.BatchSize()),
	}
	if emb.StopWordsFile() != "" {
		opts = append(opts, dokit.WithStopWordsFile(emb.StopWordsFile()))
	}

	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return opts, nil
	}

	if endpoint.Model() == "local" {
		return append(opts, dokit.WithHugot(cfg.ModelsDir())), nil
	}

	openaiCfg := provider.OpenAIConfig{
		APIKey:         endpoint.APIKey(),
		BaseURL:        endpoint.BaseURL(),
		EmbeddingModel: endpoint.Model(),
		Timeout:        endpoint.Timeout(),
		MaxRetries:     endpoint.MaxRetries(),
		InitialDelay:   endpoint.InitialDelay(),
		BackoffFactor:  endpoint.BackoffFactor(),
	}
	if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
		transport, err := provider.NewCachingTransport(cacheDir, nil)
		if err != nil {
			return nil, fmt.Errorf("http cache: %w", err)
		}
		openaiCfg.HTTPClient = &http.Client{
			Timeout:   endpoint.Timeout(),
			Transport: transport,
		}
		opts = append(opts, dokit.WithCloser(transport))
	}
	p := provider.NewOpenAIProviderFromConfig(openaiCfg)

	budget, err := search.NewTokenBudget(endpoint.MaxBatchChars())
	if err != nil {
		return nil, fmt.Errorf("max batch chars: %w", err)
	}

	opts = append(opts,
		dokit.WithEmbeddingProvider(p),
		dokit.WithEmbeddingBudget(budget),
	)

	return opts, nil
}

// chunkingOptions returns the dokit.Option for the text chunking parameters.
func chunkingOptions(cfg config.AppConfig) []dokit.Option {
	ch := cfg.Chunking()
	return []dokit.Option{
		dokit.WithChunkParams(chunking.ChunkParams{
			Size:    ch.ChunkSize(),
			Overlap: ch.ChunkOverlap(),
			MinSize: ch.MinChunkLength(),
		}),
	}
}

// isSQLite checks if the database URL is for SQLite.
func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:")
}

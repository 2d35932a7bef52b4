package search

import "context"

// Embedder converts text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// BatchProgress receives the running total of chunks embedded so far and
// the overall number queued for this Index call.
type BatchProgress func(completed, total int)

// BatchError receives the chunk offsets of a failed batch and the
// upstream error (HTTP 429, timeout, auth failure).
type BatchError func(batchStart, batchEnd int, err error)

// IndexOption configures the behaviour of an Index call.
type IndexOption func(*IndexConfig)

// WithProgress registers a callback invoked after each batch of
// embeddings is generated and saved.
func WithProgress(fn BatchProgress) IndexOption {
	return func(c *IndexConfig) { c.progress = fn }
}

// WithBatchError registers a callback invoked when an individual batch
// fails, so callers can surface each upstream error as it occurs.
func WithBatchError(fn BatchError) IndexOption {
	return func(c *IndexConfig) { c.batchError = fn }
}

// IndexConfig holds the resolved configuration for an Index call.
type IndexConfig struct {
	progress   BatchProgress
	batchError BatchError
}

// NewIndexConfig applies all options and returns the resolved config.
func NewIndexConfig(opts ...IndexOption) IndexConfig {
	var cfg IndexConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Progress returns the progress callback, or nil if none was set.
func (c IndexConfig) Progress() BatchProgress { return c.progress }

// BatchError returns the batch error callback, or nil if none was set.
func (c IndexConfig) BatchError() BatchError { return c.batchError }

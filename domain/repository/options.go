package repository

import "time"

// WithFilename filters by the "filename" column.
func WithFilename(name string) Option {
	return WithCondition("filename", name)
}

// WithMediaType filters by the "media_type" column.
func WithMediaType(mediaType string) Option {
	return WithCondition("media_type", mediaType)
}

// WithStoragePath filters by the "storage_path" column.
func WithStoragePath(path string) Option {
	return WithCondition("storage_path", path)
}

// WithSessionID filters by the "session_id" column.
func WithSessionID(sessionID string) Option {
	return WithCondition("session_id", sessionID)
}

// WithGlobal filters for globally visible documents (global = true).
func WithGlobal() Option {
	return WithCondition("global", true)
}

// WithScope filters documents visible to the given session: documents
// owned by the session plus documents marked global.
func WithScope(sessionID string) Option {
	return WithWhere("session_id = ? OR global = ?", sessionID, true)
}

// WithEmbeddingsGenerated filters by the "embeddings_generated" column.
func WithEmbeddingsGenerated(done bool) Option {
	return WithCondition("embeddings_generated", done)
}

// WithIngestDueBefore filters documents that are still waiting for embeddings
// and were last updated before the given time (stalled ingestions).
func WithIngestDueBefore(t time.Time) Option {
	return WithWhere("embeddings_generated = ? AND updated_at < ?", false, t)
}

package persistence

import (
	"context"
	"fmt"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChunkStore implements chunk.Store using GORM.
type ChunkStore struct {
	database.Repository[chunk.Chunk, ChunkModel]
}

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(db database.Database) ChunkStore {
	return ChunkStore{
		Repository: database.NewRepository[chunk.Chunk, ChunkModel](db, ChunkMapper{}, "chunk"),
	}
}

// Save creates or updates a chunk.
func (s ChunkStore) Save(ctx context.Context, c chunk.Chunk) (chunk.Chunk, error) {
	model := s.Mapper().ToModel(c)

	var result *gorm.DB
	if c.ID() == 0 {
		result = s.DB(ctx).Create(&model)
	} else {
		result = s.DB(ctx).Save(&model)
	}

	if result.Error != nil {
		return chunk.Chunk{}, fmt.Errorf("save chunk: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// SaveAll creates or updates a batch of chunks. Conflicts on
// (document_id, chunk_index) update in place so a retried ingestion
// does not duplicate rows.
func (s ChunkStore) SaveAll(ctx context.Context, chunks []chunk.Chunk) ([]chunk.Chunk, error) {
	if len(chunks) == 0 {
		return []chunk.Chunk{}, nil
	}

	models := make([]ChunkModel, len(chunks))
	for i, c := range chunks {
		models[i] = s.Mapper().ToModel(c)
	}

	result := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "page_estimate", "token_estimate", "embedding", "updated_at"}),
	}).Create(&models)

	if result.Error != nil {
		return nil, fmt.Errorf("save chunks: %w", result.Error)
	}

	saved := make([]chunk.Chunk, len(models))
	for i, m := range models {
		saved[i] = s.Mapper().ToDomain(m)
	}
	return saved, nil
}

// DeleteByDocument removes all chunks belonging to a document.
func (s ChunkStore) DeleteByDocument(ctx context.Context, documentID int64) error {
	result := s.DB(ctx).Where("document_id = ?", documentID).Delete(&ChunkModel{})
	if result.Error != nil {
		return fmt.Errorf("delete chunks for document %d: %w", documentID, result.Error)
	}
	return nil
}

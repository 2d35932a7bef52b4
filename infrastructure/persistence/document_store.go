package persistence

import (
	"context"
	"fmt"

	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/internal/database"
	"gorm.io/gorm"
)

// DocumentStore implements document.Store using GORM.
type DocumentStore struct {
	database.Repository[document.Document, DocumentModel]
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db database.Database) DocumentStore {
	return DocumentStore{
		Repository: database.NewRepository[document.Document, DocumentModel](db, DocumentMapper{}, "document"),
	}
}

// Save creates or updates a document.
func (s DocumentStore) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	model := s.Mapper().ToModel(doc)

	var result *gorm.DB
	if doc.ID() == 0 {
		result = s.DB(ctx).Create(&model)
	} else {
		result = s.DB(ctx).Save(&model)
	}

	if result.Error != nil {
		return document.Document{}, fmt.Errorf("save document: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// Delete removes a document.
func (s DocumentStore) Delete(ctx context.Context, doc document.Document) error {
	model := s.Mapper().ToModel(doc)
	result := s.DB(ctx).Delete(&model)
	if result.Error != nil {
		return fmt.Errorf("delete document: %w", result.Error)
	}
	return nil
}

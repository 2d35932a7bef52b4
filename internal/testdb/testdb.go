// Package testdb opens throwaway SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/helixml/dokit/infrastructure/persistence"
	"github.com/helixml/dokit/internal/database"
)

// New opens an in-memory SQLite database with the full schema migrated
// and closes it when the test finishes. Closing drops the database, so
// consecutive tests never see each other's rows.
func New(t *testing.T) database.Database {
	t.Helper()

	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

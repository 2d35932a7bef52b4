package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

type receipt struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Vendor string `gorm:"column:vendor"`
	Cents  int64  `gorm:"column:cents"`
}

func newTxDB(t *testing.T) Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), "sqlite:///"+filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.GORM().AutoMigrate(&receipt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countReceipts(t *testing.T, db Database) int64 {
	t.Helper()
	var count int64
	if err := db.Session(context.Background()).Model(&receipt{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestWithTransaction_Commits(t *testing.T) {
	db := newTxDB(t)
	ctx := context.Background()

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&receipt{Vendor: "Paper & Ink", Cents: 1250}).Error
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	if got := countReceipts(t, db); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newTxDB(t)
	ctx := context.Background()

	boom := errors.New("vendor rejected")
	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&receipt{Vendor: "Paper & Ink", Cents: 1250}).Error; err != nil {
			return err
		}
		return boom
	})

	// The caller's error comes back unwrapped.
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if got := countReceipts(t, db); got != 0 {
		t.Errorf("count = %d, want 0 after rollback", got)
	}
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	db := newTxDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = WithTransaction(ctx, db, func(tx *gorm.DB) error {
			if err := tx.Create(&receipt{Vendor: "Paper & Ink", Cents: 1250}).Error; err != nil {
				return err
			}
			panic("mid-transaction failure")
		})
	}()

	if got := countReceipts(t, db); got != 0 {
		t.Errorf("count = %d, want 0 after panic rollback", got)
	}
}

func TestWithTransaction_SeesOwnWrites(t *testing.T) {
	db := newTxDB(t)
	ctx := context.Background()

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&receipt{Vendor: "Harbor Cafe", Cents: 430}).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&receipt{}).Count(&count).Error; err != nil {
			return err
		}
		if count != 1 {
			t.Errorf("in-transaction count = %d, want 1", count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
}

func TestWithTransactionResult_ReturnsValue(t *testing.T) {
	db := newTxDB(t)
	ctx := context.Background()

	id, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (int64, error) {
		r := receipt{Vendor: "Harbor Cafe", Cents: 430}
		if err := tx.Create(&r).Error; err != nil {
			return 0, err
		}
		return r.ID, nil
	})
	if err != nil {
		t.Fatalf("WithTransactionResult: %v", err)
	}
	if id == 0 {
		t.Error("expected a generated ID")
	}
	if got := countReceipts(t, db); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestWithTransactionResult_ZeroValueOnError(t *testing.T) {
	db := newTxDB(t)
	ctx := context.Background()

	boom := errors.New("vendor rejected")
	id, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (int64, error) {
		r := receipt{Vendor: "Harbor Cafe", Cents: 430}
		if err := tx.Create(&r).Error; err != nil {
			return 0, err
		}
		return r.ID, boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if id != 0 {
		t.Errorf("id = %d, want zero value on error", id)
	}
	if got := countReceipts(t, db); got != 0 {
		t.Errorf("count = %d, want 0 after rollback", got)
	}
}

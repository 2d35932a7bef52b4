package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Float64Slice stores a []float64 as a JSON column. Embeddings are scored
// in-process, so the database never needs a native vector type.
type Float64Slice []float64

// Scan implements sql.Scanner for reading JSON from the database.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Float64Slice", value)
	}

	return json.Unmarshal(data, f)
}

// Value implements driver.Valuer for writing JSON to the database.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// DocumentModel represents a registered document in the database.
type DocumentModel struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Filename            string    `gorm:"column:filename;size:1024;not null"`
	MediaType           string    `gorm:"column:media_type;index;size:255"`
	SizeBytes           int64     `gorm:"column:size_bytes;default:0"`
	StoragePath         string    `gorm:"column:storage_path;size:1024"`
	ExtractedText       string    `gorm:"column:extracted_text;type:text"`
	PageCount           int       `gorm:"column:page_count;default:0"`
	EmbeddingsGenerated bool      `gorm:"column:embeddings_generated;default:false"`
	SessionID           string    `gorm:"column:session_id;index;size:255"`
	Global              bool      `gorm:"column:global;default:false"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (DocumentModel) TableName() string {
	return "documents"
}

// ChunkModel represents a document chunk in the database.
type ChunkModel struct {
	ID            int64        `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentID    int64        `gorm:"column:document_id;index;uniqueIndex:idx_chunks_document_chunk"`
	ChunkIndex    int          `gorm:"column:chunk_index;uniqueIndex:idx_chunks_document_chunk"`
	Content       string       `gorm:"column:content;type:text"`
	PageEstimate  int          `gorm:"column:page_estimate;default:0"`
	TokenEstimate int          `gorm:"column:token_estimate;default:0"`
	Embedding     Float64Slice `gorm:"column:embedding;type:json"`
	CreatedAt     time.Time    `gorm:"column:created_at"`
	UpdatedAt     time.Time    `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ChunkModel) TableName() string {
	return "chunks"
}

// TaskModel represents a queued task in the database.
type TaskModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string          `gorm:"column:dedup_key;type:varchar(255);uniqueIndex:idx_tasks_dedup_key;not null"`
	Type      string          `gorm:"column:type;type:varchar(255);index;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb"`
	Priority  int             `gorm:"column:priority;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}

// TaskStatusModel represents task status in the database.
type TaskStatusModel struct {
	ID            string    `gorm:"column:id;type:varchar(255);primaryKey;index;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
	Operation     string    `gorm:"column:operation;type:varchar(255);index;not null"`
	TrackableID   *int64    `gorm:"column:trackable_id;index"`
	TrackableType *string   `gorm:"column:trackable_type;type:varchar(255);index"`
	ParentID      *string   `gorm:"column:parent;type:varchar(255);index"`
	Message       string    `gorm:"column:message;type:text;default:''"`
	State         string    `gorm:"column:state;type:varchar(255);default:''"`
	Error         string    `gorm:"column:error;type:text;default:''"`
	Total         int       `gorm:"column:total;default:0"`
	Current       int       `gorm:"column:current;default:0"`
}

// TableName returns the table name.
func (TaskStatusModel) TableName() string {
	return "task_status"
}

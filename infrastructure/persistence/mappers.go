package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/helixml/dokit/domain/chunk"
	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/task"
)

// DocumentMapper maps between domain Document and persistence DocumentModel.
type DocumentMapper struct{}

// ToDomain converts a DocumentModel to a domain Document.
func (m DocumentMapper) ToDomain(e DocumentModel) document.Document {
	return document.ReconstructDocument(
		e.ID,
		e.Filename,
		e.MediaType,
		e.SizeBytes,
		e.StoragePath,
		e.ExtractedText,
		e.PageCount,
		e.EmbeddingsGenerated,
		e.SessionID,
		e.Global,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Document to a DocumentModel.
func (m DocumentMapper) ToModel(d document.Document) DocumentModel {
	return DocumentModel{
		ID:                  d.ID(),
		Filename:            d.Filename(),
		MediaType:           d.MediaType(),
		SizeBytes:           d.SizeBytes(),
		StoragePath:         d.StoragePath(),
		ExtractedText:       d.ExtractedText(),
		PageCount:           d.PageCount(),
		EmbeddingsGenerated: d.EmbeddingsGenerated(),
		SessionID:           d.SessionID(),
		Global:              d.Global(),
		CreatedAt:           d.CreatedAt(),
		UpdatedAt:           d.UpdatedAt(),
	}
}

// ChunkMapper maps between domain Chunk and persistence ChunkModel.
type ChunkMapper struct{}

// ToDomain converts a ChunkModel to a domain Chunk.
func (m ChunkMapper) ToDomain(e ChunkModel) chunk.Chunk {
	return chunk.ReconstructChunk(
		e.ID,
		e.DocumentID,
		e.ChunkIndex,
		e.Content,
		e.PageEstimate,
		e.TokenEstimate,
		[]float64(e.Embedding),
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Chunk to a ChunkModel.
func (m ChunkMapper) ToModel(c chunk.Chunk) ChunkModel {
	return ChunkModel{
		ID:            c.ID(),
		DocumentID:    c.DocumentID(),
		ChunkIndex:    c.Index(),
		Content:       c.Content(),
		PageEstimate:  c.PageEstimate(),
		TokenEstimate: c.TokenEstimate(),
		Embedding:     Float64Slice(c.Embedding()),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
}

// TaskMapper maps between domain Task and persistence TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (m TaskMapper) ToDomain(e TaskModel) (task.Task, error) {
	var payload map[string]any
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return task.Task{}, fmt.Errorf("failed to unmarshal task payload: %w", err)
		}
	}
	if payload == nil {
		payload = make(map[string]any)
	}

	return task.NewTaskWithID(
		e.ID,
		e.DedupKey,
		task.Operation(e.Type),
		e.Priority,
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	), nil
}

// ToModel converts a domain Task to a TaskModel.
func (m TaskMapper) ToModel(t task.Task) (TaskModel, error) {
	payloadJSON, err := json.Marshal(t.Payload())
	if err != nil {
		return TaskModel{}, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Type:      string(t.Operation()),
		Payload:   payloadJSON,
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}, nil
}

// TaskStatusMapper maps between domain Status and persistence TaskStatusModel.
type TaskStatusMapper struct{}

// ToDomain converts a TaskStatusModel to a domain Status.
func (m TaskStatusMapper) ToDomain(e TaskStatusModel) task.Status {
	var trackableID int64
	var trackableType task.TrackableType

	if e.TrackableID != nil {
		trackableID = *e.TrackableID
	}
	if e.TrackableType != nil {
		trackableType = task.TrackableType(*e.TrackableType)
	}

	return task.NewStatusFull(
		e.ID,
		task.ReportingState(e.State),
		task.Operation(e.Operation),
		e.Message,
		e.CreatedAt,
		e.UpdatedAt,
		e.Total,
		e.Current,
		e.Error,
		nil,
		trackableID,
		trackableType,
	)
}

// ToModel converts a domain Status to a TaskStatusModel.
func (m TaskStatusMapper) ToModel(s task.Status) TaskStatusModel {
	model := TaskStatusModel{
		ID:        s.ID(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
		Operation: string(s.Operation()),
		Message:   s.Message(),
		State:     string(s.State()),
		Error:     s.Error(),
		Total:     s.Total(),
		Current:   s.Current(),
	}

	if s.TrackableID() != 0 {
		id := s.TrackableID()
		model.TrackableID = &id
	}

	if s.TrackableType() != "" {
		t := string(s.TrackableType())
		model.TrackableType = &t
	}

	if s.Parent() != nil {
		parentID := s.Parent().ID()
		model.ParentID = &parentID
	}

	return model
}

// Package task provides task queue domain types for async work processing.
package task

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Priority represents task queue priority levels. Levels are spaced far
// apart so the per-batch offsets added when enqueuing a pipeline (tens,
// not thousands) can never promote a task past the next level.
type Priority int

// Priority values.
const (
	PriorityBackground    Priority = 1000
	PriorityNormal        Priority = 2000
	PriorityUserInitiated Priority = 5000
	PriorityCritical      Priority = 10000
)

// Task is an item waiting in the queue. Existence implies pending: there
// is no status field, and processed tasks are deleted.
type Task struct {
	id        int64
	dedupKey  string
	operation Operation
	priority  int
	payload   map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// NewTask creates a Task for the given operation. The dedup key is
// derived from the operation and payload so that enqueuing the same work
// twice collapses into one queue entry.
func NewTask(operation Operation, priority int, payload map[string]any) Task {
	p := clonePayload(payload)
	return Task{
		dedupKey:  dedupKey(operation, p),
		operation: operation,
		priority:  priority,
		payload:   p,
	}
}

// NewTaskWithID reconstructs a persisted Task with all fields.
func NewTaskWithID(
	id int64,
	dedupKey string,
	operation Operation,
	priority int,
	payload map[string]any,
	createdAt, updatedAt time.Time,
) Task {
	return Task{
		id:        id,
		dedupKey:  dedupKey,
		operation: operation,
		priority:  priority,
		payload:   clonePayload(payload),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the task ID.
func (t Task) ID() int64 { return t.id }

// DedupKey returns the deduplication key.
func (t Task) DedupKey() string { return t.dedupKey }

// Operation returns the task operation.
func (t Task) Operation() Operation { return t.operation }

// Priority returns the task priority.
func (t Task) Priority() int { return t.priority }

// Payload returns a copy of the task payload.
func (t Task) Payload() map[string]any {
	return clonePayload(t.payload)
}

// CreatedAt returns when the task was created.
func (t Task) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the task was last updated.
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// WithID returns a copy of the task with the given ID.
func (t Task) WithID(id int64) Task {
	t.id = id
	return t
}

// WithTimestamps returns a copy of the task with the given timestamps.
func (t Task) WithTimestamps(createdAt, updatedAt time.Time) Task {
	t.createdAt = createdAt
	t.updatedAt = updatedAt
	return t
}

// PayloadJSON returns the payload as JSON bytes.
func (t Task) PayloadJSON() ([]byte, error) {
	return json.Marshal(t.payload)
}

// dedupKey builds "{operation}:{v1}:{v2}..." with payload values in
// sorted key order, so the key is stable regardless of map iteration.
func dedupKey(operation Operation, payload map[string]any) string {
	keys := slices.Sorted(maps.Keys(payload))
	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, operation.String())
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%v", payload[k]))
	}
	return strings.Join(parts, ":")
}

// clonePayload copies the payload map, mapping nil to an empty map.
func clonePayload(payload map[string]any) map[string]any {
	result := make(map[string]any, len(payload))
	maps.Copy(result, payload)
	return result
}

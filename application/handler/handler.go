// Package handler defines the contract between the task worker and the
// operations it dispatches, plus payload helpers shared by handler
// implementations.
package handler

import (
	"context"
	"fmt"

	"github.com/helixml/dokit/domain/task"
)

// Tracker receives progress updates while a handler runs. Implementations
// persist them as status records surfaced through the documents API.
type Tracker interface {
	SetTotal(ctx context.Context, total int)
	SetCurrent(ctx context.Context, current int, message string)
	Skip(ctx context.Context, message string)
	Fail(ctx context.Context, message string)
	Complete(ctx context.Context)
}

// TrackerFactory builds a Tracker bound to one operation on one trackable
// entity, usually a document.
type TrackerFactory interface {
	ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) Tracker
}

// Handler executes one queued operation against its payload.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// ExtractInt64 reads a required integer field from a task payload.
// Payloads that round-tripped through JSON carry numbers as float64.
func ExtractInt64(payload map[string]any, key string) (int64, error) {
	val, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", key)
	}

	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("invalid type for %s: %T", key, val)
	}
}

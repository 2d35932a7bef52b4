package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helixml/dokit/domain/task"
)

// WorkerTracker marks a task's status record failed or complete.
type WorkerTracker interface {
	Fail(ctx context.Context, message string)
	Complete(ctx context.Context)
}

// WorkerTrackerFactory creates trackers scoped to one operation on one
// trackable entity.
type WorkerTrackerFactory interface {
	ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) WorkerTracker
}

// Handler executes one task operation.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// Registry maps operations to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[task.Operation]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[task.Operation]Handler)}
}

// Register installs the handler for an operation, replacing any previous one.
func (r *Registry) Register(operation task.Operation, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// Handler returns the handler registered for an operation.
func (r *Registry) Handler(operation task.Operation) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[operation]
	return handler, ok
}

// HasHandler reports whether an operation has a handler.
func (r *Registry) HasHandler(operation task.Operation) bool {
	_, ok := r.Handler(operation)
	return ok
}

// Operations returns the registered operations in no particular order.
func (r *Registry) Operations() []task.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Collect(maps.Keys(r.handlers))
}

// Worker drains the task queue, dispatching each task to its registered
// handler. Failed and unroutable tasks are dropped rather than retried so
// a poison task cannot wedge the queue.
type Worker struct {
	store          task.TaskStore
	registry       *Registry
	trackerFactory WorkerTrackerFactory
	logger         *slog.Logger
	pollPeriod     time.Duration

	busy   atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a queue worker polling once per second.
func NewWorker(store task.TaskStore, registry *Registry, trackerFactory WorkerTrackerFactory, logger *slog.Logger) *Worker {
	return &Worker{
		store:          store,
		registry:       registry,
		trackerFactory: trackerFactory,
		logger:         logger,
		pollPeriod:     time.Second,
	}
}

// WithPollPeriod overrides how often the worker checks for new tasks.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	w.pollPeriod = d
	return w
}

// Start launches the polling loop in a goroutine. Stop shuts it down.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.poll(ctx)
	}()

	w.logger.Info("queue worker started")
}

// Stop cancels the polling loop and waits for any in-flight task to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("queue worker stopped")
}

// Busy reports whether a task is executing right now.
func (w *Worker) Busy() bool { return w.busy.Load() }

// ProcessOne dequeues and runs a single task synchronously. It reports
// whether a task was available.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	t, found, err := w.store.Dequeue(ctx)
	if err != nil || !found {
		return false, err
	}
	return true, w.runTask(ctx, t)
}

func (w *Worker) poll(ctx context.Context) {
	w.logger.Debug("worker loop started")

	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker loop stopping")
			return
		case <-ticker.C:
			if _, err := w.ProcessOne(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("error processing task", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Worker) runTask(ctx context.Context, t task.Task) error {
	w.busy.Store(true)
	defer w.busy.Store(false)

	start := time.Now()
	w.logger.Info("processing task",
		slog.Int64("task_id", t.ID()),
		slog.String("operation", t.Operation().String()),
	)

	h, ok := w.registry.Handler(t.Operation())
	if !ok {
		w.logger.Error("no handler for operation",
			slog.Int64("task_id", t.ID()),
			slog.String("operation", t.Operation().String()),
		)
		// An unroutable task must not block the queue.
		return w.store.Delete(ctx, t)
	}

	if err := runRecovering(ctx, h, t.Payload()); err != nil {
		w.logger.Error("task execution failed",
			slog.Int64("task_id", t.ID()),
			slog.String("operation", t.Operation().String()),
			slog.String("error", err.Error()),
		)
		if tracker, found := w.taskTracker(t); found {
			tracker.Fail(ctx, err.Error())
		}
		// Failed tasks are dropped, not retried.
		return w.store.Delete(ctx, t)
	}

	if tracker, found := w.taskTracker(t); found {
		tracker.Complete(ctx)
	}

	w.logger.Info("task completed",
		slog.Int64("task_id", t.ID()),
		slog.String("operation", t.Operation().String()),
		slog.Duration("duration", time.Since(start)),
	)
	return w.store.Delete(ctx, t)
}

// runRecovering executes the handler, converting a panic into an error.
func runRecovering(ctx context.Context, h Handler, payload map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, payload)
}

// taskTracker builds the status tracker for a task's document, when the
// payload names one.
func (w *Worker) taskTracker(t task.Task) (WorkerTracker, bool) {
	if w.trackerFactory == nil {
		return nil, false
	}
	docID, _ := extractInt64(t.Payload(), "document_id")
	if docID == 0 {
		return nil, false
	}
	return w.trackerFactory.ForOperation(t.Operation(), task.TrackableTypeDocument, docID), true
}

// extractInt64 reads an integer payload field that may have round-tripped
// through JSON as a float64.
func extractInt64(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/helixml/dokit/domain/document"
	"github.com/helixml/dokit/domain/repository"
	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/internal/config"
)

// PeriodicSync re-enqueues ingestion for documents whose embeddings were
// never generated, typically after a crash mid-pipeline. Each document is
// re-enqueued at most maxAttempts times so a permanently failing document
// does not churn the queue forever.
type PeriodicSync struct {
	documents   document.Store
	queue       *Queue
	prescribed  task.PrescribedOperations
	logger      *slog.Logger
	interval    time.Duration
	checkEvery  time.Duration
	enabled     bool
	maxAttempts int

	// attempts counts re-enqueues per document ID. Only the run goroutine
	// touches it.
	attempts map[int64]int

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodicSync creates a new PeriodicSync from config and dependencies.
func NewPeriodicSync(
	cfg config.PeriodicSyncConfig,
	documents document.Store,
	queue *Queue,
	prescribed task.PrescribedOperations,
	logger *slog.Logger,
) *PeriodicSync {
	return &PeriodicSync{
		documents:   documents,
		queue:       queue,
		prescribed:  prescribed,
		logger:      logger,
		interval:    cfg.Interval(),
		checkEvery:  cfg.CheckInterval(),
		enabled:     cfg.Enabled(),
		maxAttempts: cfg.RetryAttempts(),
		attempts:    make(map[int64]int),
	}
}

// Start begins periodic reconciliation in a background goroutine.
// If disabled, this is a no-op.
func (p *PeriodicSync) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Info("periodic sync disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Go(func() {
		p.run(ctx)
	})

	p.logger.Info("periodic sync started",
		slog.Duration("interval", p.interval),
		slog.Duration("check_interval", p.checkEvery),
		slog.Int("retry_attempts", p.maxAttempts),
	)
}

// Stop cancels the background goroutine and waits for it to finish.
func (p *PeriodicSync) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.logger.Info("periodic sync stopped")
}

func (p *PeriodicSync) run(ctx context.Context) {
	// Check immediately on startup
	p.sync(ctx)

	ticker := time.NewTicker(p.checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sync(ctx)
		}
	}
}

func (p *PeriodicSync) sync(ctx context.Context) {
	stalled, err := p.documents.Find(ctx, repository.WithIngestDueBefore(time.Now().Add(-p.interval)))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("periodic sync failed to find documents",
			slog.String("error", err.Error()),
		)
		return
	}

	operations := p.prescribed.IngestDocument()

	seen := make(map[int64]struct{}, len(stalled))
	enqueued := 0
	for _, doc := range stalled {
		id := doc.ID()
		seen[id] = struct{}{}

		if p.maxAttempts > 0 && p.attempts[id] >= p.maxAttempts {
			if p.attempts[id] == p.maxAttempts {
				// Bump past the limit so the warning fires once.
				p.attempts[id]++
				p.logger.Warn("periodic sync giving up on document",
					slog.Int64("document_id", id),
					slog.Int("attempts", p.maxAttempts),
				)
			}
			continue
		}

		payload := map[string]any{"document_id": id}
		if err := p.queue.EnqueueOperations(ctx, operations, task.PriorityBackground, payload); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("periodic sync failed to enqueue",
				slog.Int64("document_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		p.attempts[id]++
		enqueued++
	}

	// Documents that finished ingesting, or were deleted, leave the stalled
	// set. Forget their counters so a later stall starts a fresh budget.
	for id := range p.attempts {
		if _, ok := seen[id]; !ok {
			delete(p.attempts, id)
		}
	}

	p.logger.Debug("periodic sync enqueued", slog.Int("count", enqueued))
}

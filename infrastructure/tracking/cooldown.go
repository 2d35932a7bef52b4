package tracking

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/helixml/dokit/domain/task"
)

var (
	_ Reporter  = (*Cooldown)(nil)
	_ io.Closer = (*Cooldown)(nil)
)

// Cooldown decorates a Reporter with per-status-ID rate limiting.
// Terminal states (completed, failed, skipped) always pass through
// immediately. Non-terminal updates are delivered at most once per
// interval; the newest suppressed status is flushed when the interval
// elapses, a terminal state arrives, or the Cooldown is closed.
type Cooldown struct {
	inner    Reporter
	interval time.Duration
	mu       sync.Mutex
	entries  map[string]*throttleEntry
}

// throttleEntry tracks delivery state for one status ID.
type throttleEntry struct {
	lastSent time.Time
	pending  *task.Status
	timer    *time.Timer
}

// NewCooldown wraps inner with a minimum interval between deliveries per
// status ID.
func NewCooldown(inner Reporter, interval time.Duration) *Cooldown {
	return &Cooldown{
		inner:    inner,
		interval: interval,
		entries:  make(map[string]*throttleEntry),
	}
}

// OnChange delivers or suppresses one status update.
func (c *Cooldown) OnChange(ctx context.Context, status task.Status) error {
	id := status.ID()

	c.mu.Lock()

	// Terminal states drop any pending update and go straight through.
	if status.State().IsTerminal() {
		if entry := c.entries[id]; entry != nil {
			if entry.timer != nil {
				entry.timer.Stop()
			}
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return c.inner.OnChange(ctx, status)
	}

	entry := c.entries[id]
	if entry == nil {
		entry = &throttleEntry{}
		c.entries[id] = entry
	}

	elapsed := time.Since(entry.lastSent)
	if elapsed >= c.interval {
		if entry.timer != nil {
			entry.timer.Stop()
			entry.timer = nil
		}
		entry.pending = nil
		entry.lastSent = time.Now()
		c.mu.Unlock()
		return c.inner.OnChange(ctx, status)
	}

	// Inside the window: remember the newest status and arm a timer for
	// the remainder if one is not already running.
	pending := status
	entry.pending = &pending
	if entry.timer == nil {
		entry.timer = time.AfterFunc(c.interval-elapsed, func() {
			c.flush(id)
		})
	}

	c.mu.Unlock()
	return nil
}

// Close stops all timers and delivers whatever is still pending.
func (c *Cooldown) Close() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*throttleEntry)
	c.mu.Unlock()

	for _, entry := range entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		if entry.pending != nil {
			_ = c.inner.OnChange(context.Background(), *entry.pending)
		}
	}
	return nil
}

// flush delivers the pending status for id once its window has elapsed.
func (c *Cooldown) flush(id string) {
	c.mu.Lock()
	entry := c.entries[id]
	if entry == nil {
		c.mu.Unlock()
		return
	}
	entry.timer = nil
	if entry.pending == nil {
		c.mu.Unlock()
		return
	}

	status := *entry.pending
	entry.pending = nil
	entry.lastSent = time.Now()
	c.mu.Unlock()

	_ = c.inner.OnChange(context.Background(), status)
}

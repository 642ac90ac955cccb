package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jobsift/jobsift/internal/ingest"
)

// Throttler enforces a minimum spacing between requests to one backend. It
// blocks the caller on a timer rather than busy-waiting, and respects
// context cancellation while waiting.
type Throttler struct {
	mu      sync.Mutex
	last    time.Time
	backend string
	min     time.Duration
	clock   ingest.Clock
}

// NewThrottler builds a Throttler for the named backend.
func NewThrottler(backend string, minDelay time.Duration, clock ingest.Clock) *Throttler {
	return &Throttler{
		backend: backend,
		min:     minDelay,
		clock:   clock,
	}
}

// Wait blocks until at least the minimum delay has elapsed since the
// previous request, then records the new request time.
func (t *Throttler) Wait(ctx context.Context) error {
	if t.min <= 0 {
		return nil
	}
	t.mu.Lock()
	now := t.clock.Now()
	remaining := t.min - now.Sub(t.last)
	if remaining <= 0 {
		t.last = now
		t.mu.Unlock()
		return nil
	}
	// reserve the slot before sleeping so a concurrent caller queues behind it
	t.last = now.Add(remaining)
	t.mu.Unlock()

	throttleDelay.WithLabelValues(t.backend).Observe(remaining.Seconds())
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	}
}

package advisory

import (
	"context"
	"sync"
	"time"

	"PaperTrader/internal/model"
)

// Gate is a sliding-window rate limiter protecting the advisory collaborator:
// at most limit calls per rolling window, tracked process-wide. A caller that
// hits the limit blocks until the oldest call leaves the window; the gate
// never rejects outright. Eviction of stale timestamps and registration of
// the new call are one atomic unit, and the blocking sleep happens outside
// the lock.
type Gate struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time // oldest first

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewGate creates a gate allowing limit calls per window.
func NewGate(limit int, window time.Duration) *Gate {
	return &Gate{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Acquire blocks until a call slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		kept := g.calls[:0]
		for _, t := range g.calls {
			if now.Sub(t) < g.window {
				kept = append(kept, t)
			}
		}
		g.calls = kept

		if len(g.calls) < g.limit {
			g.calls = append(g.calls, now)
			g.mu.Unlock()
			return nil
		}
		wait := g.window - now.Sub(g.calls[0])
		g.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limited wraps an Advisor so every call passes through the gate first.
type Limited struct {
	Advisor Advisor
	Gate    *Gate
}

func (l *Limited) GetAdvisory(ctx context.Context, snap Snapshot) (model.Advisory, error) {
	if err := l.Gate.Acquire(ctx); err != nil {
		return model.Advisory{}, err
	}
	return l.Advisor.GetAdvisory(ctx, snap)
}

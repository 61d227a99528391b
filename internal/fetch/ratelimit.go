package fetch

import (
	"context"
	"sync"
	"time"
)

// Window is a sliding rate-limit window: at most Calls sends inside any
// rolling Period.
type Window struct {
	Calls  int
	Period time.Duration
}

// limiter enforces a Window with timestamp bookkeeping. All state lives
// behind the mutex; callers block in Acquire until a slot opens.
type limiter struct {
	mu     sync.Mutex
	window Window
	clock  Clock
	sent   []time.Time
}

func newLimiter(w Window, clock Clock) *limiter {
	if w.Calls <= 0 {
		w.Calls = 1
	}
	if w.Period <= 0 {
		w.Period = time.Second
	}
	return &limiter{window: w, clock: clock}
}

// Acquire blocks until a send slot is available, then records the send.
// It may sleep up to one full period when the window is saturated.
func (l *limiter) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.clock.Now()
		l.prune(now)
		if len(l.sent) < l.window.Calls {
			l.sent = append(l.sent, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.sent[0].Add(l.window.Period).Sub(now)
		l.mu.Unlock()

		if wait > 0 {
			l.clock.Sleep(wait)
		}
	}
}

// prune drops timestamps that have aged out of the window. Caller holds mu.
func (l *limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window.Period)
	keep := l.sent[:0]
	for _, t := range l.sent {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	l.sent = keep
}

// inFlight reports the current window occupancy.
func (l *limiter) inFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.clock.Now())
	return len(l.sent)
}

package catalog

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces Rolimons requests out client-side. The itemdetails endpoint
// is shared across every command and the monitor loop, so the retry path has
// to respect the pace too.
type Limiter struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

func NewLimiter(requestsPerSecond int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Limiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// Wait blocks until this caller's slot comes up or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	at := now
	if l.next.After(now) {
		at = l.next
	}
	l.next = at.Add(l.interval)
	l.mu.Unlock()

	delay := time.Until(at)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

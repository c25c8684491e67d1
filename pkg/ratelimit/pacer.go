package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces consecutive requests at least delay apart.
// The first request is never delayed; a zero delay disables pacing.
type Pacer struct {
	delay time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewPacer creates a pacer with the given minimum spacing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Delay returns the configured spacing.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}

	p.mu.Lock()
	var wait time.Duration
	if !p.last.IsZero() {
		wait = p.delay - time.Since(p.last)
	}
	p.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
	return nil
}

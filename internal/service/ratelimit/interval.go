package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Interval spaces consecutive calls per key by at least a minimum interval.
// Each caller reserves the next free slot under the mutex and then sleeps
// outside it, so concurrent callers queue instead of firing together.
type Interval struct {
	mu   sync.Mutex
	next map[string]time.Time
}

func NewInterval() *Interval { return &Interval{next: make(map[string]time.Time)} }

// Wait blocks until key may fire again and returns how long it waited.
// The slot stays reserved even if ctx ends first.
func (l *Interval) Wait(ctx context.Context, key string, interval time.Duration) (time.Duration, error) {
	now := time.Now()

	l.mu.Lock()
	slot := l.next[key]
	if slot.Before(now) {
		slot = now
	}
	l.next[key] = slot.Add(interval)
	l.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return 0, nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		return delay, ctx.Err()
	}
}

package ratelimit

import (
	"math"
	"sync"
	"time"
)

// maxBuckets triggers a sweep of refilled buckets before a new client is added.
const maxBuckets = 10000

// level is a bucket's token count as of a point in time. Refill is applied
// lazily from the elapsed time when the bucket is next consulted.
type level struct {
	tokens float64
	stamp  time.Time
}

func (lv level) refilled(now time.Time, capacity, refillPerSec float64) float64 {
	return math.Min(capacity, lv.tokens+now.Sub(lv.stamp).Seconds()*refillPerSec)
}

// Limiter throttles inbound requests with one token bucket per key. A
// bucket starts full; a bucket that has refilled completely is the same as
// a missing one, so those are dropped once the map grows past its bound.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	now     func() time.Time
}

type bucket struct {
	level
	capacity, rate float64
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket), limit: maxBuckets, now: time.Now}
}

// Allow takes one token from key's bucket and reports whether there was one.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.limit {
			l.sweep(now)
		}
		b = &bucket{level: level{tokens: capacity, stamp: now}}
		l.buckets[key] = b
	}
	b.capacity, b.rate = capacity, refillPerSec

	tokens := b.refilled(now, capacity, refillPerSec)
	if tokens < 1 {
		return false
	}
	b.level = level{tokens: tokens - 1, stamp: now}
	return true
}

// Len reports how many buckets are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if b.refilled(now, b.capacity, b.rate) >= b.capacity {
			delete(l.buckets, k)
		}
	}
}

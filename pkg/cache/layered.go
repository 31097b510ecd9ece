package cache

import (
	"context"
	"time"
)

// Layered is a two-level cache: a process-local Bounded (L1) in front of an
// optional shared Store (L2). Store errors never fail a lookup; they degrade
// to an L1-only cache.
type Layered[V any] struct {
	local  *Bounded[string, V]
	shared Store
	prefix string
	ttl    time.Duration
}

// NewLayered creates a layered cache. shared may be nil.
func NewLayered[V any](maxSize int, shared Store, opts ...LayeredOption) *Layered[V] {
	cfg := &LayeredConfig{
		Prefix: "default",
		TTL:    24 * time.Hour,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Layered[V]{
		local:  NewBounded[string, V](maxSize),
		shared: shared,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

// Get checks L1, then L2. An L2 hit is copied into L1.
func (lc *Layered[V]) Get(ctx context.Context, key string) (V, bool) {
	if v, ok := lc.local.Get(key); ok {
		return v, true
	}

	var v V
	if lc.shared == nil {
		return v, false
	}
	if err := lc.shared.Get(ctx, GenerateKey(lc.prefix, key), &v); err != nil {
		return v, false
	}

	lc.local.Set(key, v)
	return v, true
}

// Set writes to L1 and, best effort, to L2.
func (lc *Layered[V]) Set(ctx context.Context, key string, value V) error {
	lc.local.Set(key, value)
	if lc.shared == nil {
		return nil
	}
	return lc.shared.Set(ctx, GenerateKey(lc.prefix, key), value, lc.ttl)
}

// Clear drops all L1 entries and every L2 key under this cache's prefix.
func (lc *Layered[V]) Clear(ctx context.Context) error {
	lc.local.Clear()
	if lc.shared == nil {
		return nil
	}
	return lc.shared.DeleteByPattern(ctx, BuildPattern(lc.prefix+":"))
}

// Len returns the number of L1 entries.
func (lc *Layered[V]) Len() int { return lc.local.Len() }

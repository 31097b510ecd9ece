package cache

import (
	"container/list"
	"sync"
)

// EvictFraction is the share of entries dropped when a full cache receives a new key.
const EvictFraction = 0.2

type boundedEntry[K comparable, V any] struct {
	key   K
	value V
}

// Bounded is a size-capped map with insertion-order eviction.
// Reads do not refresh an entry's position; only first insertion counts.
// Safe for concurrent use.
type Bounded[K comparable, V any] struct {
	mu      sync.RWMutex
	maxSize int
	order   *list.List
	items   map[K]*list.Element
}

// NewBounded creates a cache holding at most maxSize entries (minimum 1).
func NewBounded[K comparable, V any](maxSize int) *Bounded[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Bounded[K, V]{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[K]*list.Element, maxSize),
	}
}

// Get returns the value stored under key.
func (b *Bounded[K, V]) Get(key K) (V, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if el, ok := b.items[key]; ok {
		return el.Value.(*boundedEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key. Overwriting an existing key keeps its original
// insertion position. Inserting a new key into a full cache first evicts the
// oldest floor(maxSize*0.2) entries (at least one) under the same lock.
func (b *Bounded[K, V]) Set(key K, value V) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.items[key]; ok {
		el.Value.(*boundedEntry[K, V]).value = value
		return
	}

	if len(b.items) >= b.maxSize {
		b.evictOldest(b.evictCount())
	}

	b.items[key] = b.order.PushBack(&boundedEntry[K, V]{key: key, value: value})
}

// Delete removes key if present.
func (b *Bounded[K, V]) Delete(key K) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.items[key]; ok {
		b.order.Remove(el)
		delete(b.items, key)
	}
}

// Len returns the number of stored entries.
func (b *Bounded[K, V]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// MaxSize returns the configured capacity.
func (b *Bounded[K, V]) MaxSize() int { return b.maxSize }

// Clear drops every entry.
func (b *Bounded[K, V]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.order.Init()
	b.items = make(map[K]*list.Element, b.maxSize)
}

func (b *Bounded[K, V]) evictCount() int {
	n := int(float64(b.maxSize) * EvictFraction)
	if n < 1 {
		n = 1
	}
	return n
}

func (b *Bounded[K, V]) evictOldest(n int) {
	for i := 0; i < n; i++ {
		front := b.order.Front()
		if front == nil {
			return
		}
		b.order.Remove(front)
		delete(b.items, front.Value.(*boundedEntry[K, V]).key)
	}
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type expirableEntry[V any] struct {
	value   V
	written time.Time
}

// ExpirableLRU is a cache whose entries expire a fixed TTL after they were
// written. Reads never extend an entry's life. Expiration is explicit
// through ExpireAll, so callers decide when stale entries are dropped.
type ExpirableLRU[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	lru     *simplelru.LRU[K, *expirableEntry[V]]
	onEvict func(K, V)
}

// LRUOption configures an ExpirableLRU.
type LRUOption[K comparable, V any] func(*ExpirableLRU[K, V])

// WithEvictCallBack sets a function invoked for every entry dropped by ExpireAll.
func WithEvictCallBack[K comparable, V any](cb func(K, V)) LRUOption[K, V] {
	return func(c *ExpirableLRU[K, V]) {
		c.onEvict = cb
	}
}

// NewExpirableLRU creates an ExpirableLRU. A zero TTL makes every entry
// eligible for removal on the next ExpireAll.
func NewExpirableLRU[K comparable, V any](ttl time.Duration, opts ...LRUOption[K, V]) *ExpirableLRU[K, V] {
	c := &ExpirableLRU[K, V]{ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	// size is always positive so NewLRU cannot fail
	c.lru, _ = simplelru.NewLRU[K, *expirableEntry[V]](math.MaxInt32, nil)
	return c
}

// Put stores the value and restarts its TTL.
func (c *ExpirableLRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, &expirableEntry[V]{value: value, written: time.Now()})
}

// Get returns the value for key. The entry keeps its write time and its
// position, so the oldest write is always at the back of the list.
func (c *ExpirableLRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Peek(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Purge drops every entry without invoking the evict callback.
func (c *ExpirableLRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// ExpireAll removes every entry written at least TTL ago, oldest first,
// and returns how many were removed.
func (c *ExpirableLRU[K, V]) ExpireAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for {
		key, e, ok := c.lru.GetOldest()
		if !ok || now.Sub(e.written) < c.ttl {
			return removed
		}
		c.lru.RemoveOldest()
		removed++
		if c.onEvict != nil {
			c.onEvict(key, e.value)
		}
	}
}

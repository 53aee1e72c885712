// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package cache

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// Defaults applied by NewLRU for non-positive arguments.
const (
	DefaultCapacity = 1024
	DefaultTTL      = 5 * time.Minute
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	prev      *entry[K, V]
	next      *entry[K, V]
}

// LRU is a thread-safe least recently used cache with TTL support.
//
// A doubly-linked list keeps recency order (head.next is newest, tail.prev
// is oldest) and a map gives O(1) lookup.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	capacity int
	ttl      time.Duration
	items    map[K]*entry[K, V]
	head     *entry[K, V]
	tail     *entry[K, V]

	hits   int64
	misses int64
}

// NewLRU creates a cache. A nil clock means the wall clock.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration, clk clock.Clock) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.WallClock
	}
	c := &LRU[K, V]{
		clock:    clk,
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*entry[K, V], capacity),
		head:     &entry[K, V]{},
		tail:     &entry[K, V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	if c.clock.Now().After(e.expiresAt) {
		c.unlink(e)
		c.misses++
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	c.hits++
	return e.value, true
}

// Add stores value under key, replacing any previous value and resetting
// its TTL. It evicts the least recently used entry when the cache is full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expires
		c.moveToFront(e)
		return
	}
	if len(c.items) >= c.capacity {
		if oldest := c.tail.prev; oldest != c.head {
			c.unlink(oldest)
		}
	}
	e := &entry[K, V]{key: key, value: value, expiresAt: expires}
	c.items[key] = e
	c.pushFront(e)
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.unlink(e)
	return true
}

// Len counts entries, including expired ones not yet collected.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired drops every expired entry and returns how many it removed.
func (c *LRU[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.After(e.expiresAt) {
			c.unlink(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Stats returns hit and miss counts and the current size.
func (c *LRU[K, V]) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

func (c *LRU[K, V]) pushFront(e *entry[K, V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[K, V]) moveToFront(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFront(e)
}

func (c *LRU[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

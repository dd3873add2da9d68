// Package cache provides an in-process keyed cache with a time-to-live.
// Entries are checked for expiry when read; nothing sweeps in the background.
package cache

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Defaults.
const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 256
)

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Expired int64 `json:"expired"`
	Evicted int64 `json:"evicted"`
	Entries int   `json:"entries"`
}

// TTL is a keyed cache whose entries expire ttl after they were stored.
type TTL[V any] struct {
	lru *LRU[string, entry[V]]
	ttl time.Duration
	now func() time.Time

	hits    atomic.Int64
	misses  atomic.Int64
	expired atomic.Int64
}

type entry[V any] struct {
	val      V
	storedAt time.Time
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewTTL creates a cache. Non-positive arguments fall back to the defaults.
func NewTTL[V any](ttl time.Duration, capacity int, opts ...Option) *TTL[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TTL[V]{
		lru: NewLRU[string, entry[V]](capacity),
		ttl: ttl,
		now: o.now,
	}
}

// Get returns the value for key if it is present and younger than the TTL.
// An expired entry is dropped on the way out.
func (c *TTL[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.lru.Delete(key)
		c.expired.Add(1)
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.val, true
}

// Set stores val under key, stamped with the current time.
func (c *TTL[V]) Set(key string, val V) {
	c.lru.Put(key, entry[V]{val: val, storedAt: c.now()})
}

// Invalidate drops key.
func (c *TTL[V]) Invalidate(key string) {
	c.lru.Delete(key)
}

// Clear drops everything.
func (c *TTL[V]) Clear() {
	c.lru.Clear()
}

// Stats returns the current counters.
func (c *TTL[V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Expired: c.expired.Load(),
		Evicted: c.lru.Evicted(),
		Entries: c.lru.Len(),
	}
}

// Key serializes call arguments into a cache key: the operation name
// followed by the JSON encoding of args.
func Key(op string, args ...any) (string, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", op, err)
	}
	return op + ":" + string(b), nil
}

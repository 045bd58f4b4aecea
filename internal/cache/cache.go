package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a stored result stays valid.
const DefaultTTL = 10 * time.Minute

// Key builds the fingerprint for a request kind and city. City names are
// trimmed and lowercased so "Lagos" and "lagos" share an entry.
func Key(kind, city string) string {
	return kind + "_" + strings.ToLower(strings.TrimSpace(city))
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache maps request fingerprints to results for a fixed TTL.
//
// Stale entries are ignored by Get but stay resident until overwritten; there
// is no capacity bound. Get followed by Set is not atomic, so two concurrent
// misses for one key both fetch and the later Set wins.
type Cache[V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry[V]
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New returns an empty cache. A ttl of zero or less means DefaultTTL.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:   ttl,
		now:   o.now,
		items: make(map[string]entry[V]),
	}
}

// TTL returns the validity window.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key if it was stored less than TTL ago.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || !c.valid(e.storedAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the current time, replacing any prior entry.
func (c *Cache[V]) Set(key string, value V) {
	storedAt := c.now()
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, storedAt: storedAt}
	c.mu.Unlock()
}

// Len returns the number of resident entries, stale ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[V]) valid(storedAt time.Time) bool {
	return c.now().Sub(storedAt) < c.ttl
}

// EntryStatus describes one resident entry.
type EntryStatus struct {
	Key      string
	StoredAt time.Time
	Age      time.Duration
	Valid    bool
}

// Status is a point-in-time snapshot for diagnostics.
type Status struct {
	TTL     time.Duration
	Entries []EntryStatus
}

// Status reports every resident entry, stale ones included, sorted by key.
// It does not modify the cache.
func (c *Cache[V]) Status() Status {
	now := c.now()

	c.mu.RLock()
	entries := make([]EntryStatus, 0, len(c.items))
	for k, e := range c.items {
		age := now.Sub(e.storedAt)
		entries = append(entries, EntryStatus{
			Key:      k,
			StoredAt: e.storedAt,
			Age:      age,
			Valid:    age < c.ttl,
		})
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return Status{TTL: c.ttl, Entries: entries}
}

// Package cache provides a generic in-memory TTL cache.
//
// Entries expire lazily: an expired entry is evicted when it is next read,
// there is no background sweeper. The cache is unbounded and safe for
// concurrent use.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is applied when a caller does not provide a TTL
const DefaultTTL = 24 * time.Hour

// Entry is a stored value with its expiry bookkeeping
type Entry struct {
	StoredAt  time.Time
	ExpiresAt time.Time
	Data      any
}

// Stats reports the current cache contents for diagnostics.
// Because expiry is lazy, keys whose entries have expired but were not
// read since may still appear.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Cache is an in-memory key/value store with per-entry TTLs
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	defaultTTL time.Duration
}

// New creates an empty cache. A non-positive defaultTTL falls back to
// DefaultTTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]Entry),
		defaultTTL: defaultTTL,
	}
}

// Set stores data under key, overwriting any existing entry.
// A non-positive ttl uses the cache default.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
		Data:      data,
	}
}

// Get returns the live value for key. Expired entries are evicted on
// read and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock, a concurrent Set may have
		// replaced the entry since the read.
		if current, ok := c.entries[key]; ok && current.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.Data, true
}

// Delete removes the entry for key if present
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Invalidate removes every entry whose key contains pattern as a
// substring and returns the number removed. An empty pattern matches
// every key.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of stored entries, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the entry count and the sorted key list
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return Stats{Size: len(keys), Keys: keys}
}

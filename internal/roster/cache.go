/**
 * Roster Cache - TTL snapshot cache of known players
 *
 * One writer at a time, many concurrent readers. Readers only ever receive a
 * copied snapshot, so a background refresh never invalidates a reader's view
 * mid-scan. Staleness is a cheap check the host loop polls to decide when to
 * refresh; it never blocks reads.
 */

package roster

import (
	"context"
	"strings"
	"sync"
	"time"
)

// PlayerRecord is one known player from the roster source.
type PlayerRecord struct {
	Name string // canonical display name
	Team string
	Note string
}

// Loader fetches the full roster from its backing source.
type Loader interface {
	Load(ctx context.Context) (map[string]PlayerRecord, error)
}

// Cache holds the roster with TTL-based staleness.
type Cache struct {
	mu        sync.RWMutex
	records   map[string]PlayerRecord // keyed by lowercased name
	refreshed time.Time

	ttl    time.Duration
	loader Loader
}

// NewCache creates an empty (stale) cache. Call Refresh before first use or
// let the host's refresh loop populate it.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		records: make(map[string]PlayerRecord),
		ttl:     ttl,
		loader:  loader,
	}
}

// Refresh reloads the roster from the backing source. Readers keep seeing the
// previous snapshot until the swap.
func (c *Cache) Refresh(ctx context.Context) error {
	loaded, err := c.loader.Load(ctx)
	if err != nil {
		return err
	}

	normalized := make(map[string]PlayerRecord, len(loaded))
	for key, rec := range loaded {
		normalized[strings.ToLower(strings.TrimSpace(key))] = rec
	}

	c.mu.Lock()
	c.records = normalized
	c.refreshed = time.Now()
	c.mu.Unlock()
	return nil
}

// IsStale reports whether the cache has outlived its TTL (or was never
// loaded).
func (c *Cache) IsStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed.IsZero() || time.Since(c.refreshed) > c.ttl
}

// Snapshot returns a read-only copy of the roster keyed by lowercased name.
func (c *Cache) Snapshot() map[string]PlayerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := make(map[string]PlayerRecord, len(c.records))
	for k, v := range c.records {
		snap[k] = v
	}
	return snap
}

// Lookup resolves a recognized name case-insensitively, returning the
// canonical roster spelling. Safe for concurrent use.
func (c *Cache) Lookup(name string) (string, bool) {
	c.mu.RLock()
	rec, ok := c.records[strings.ToLower(strings.TrimSpace(name))]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	return rec.Name, true
}

// Size returns the number of roster entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryReportCache is a map-backed report cache for single-instance
// deployments and tests. Entries are stored as JSON so behavior matches
// the Redis implementation.
type InMemoryReportCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewInMemoryReportCache creates an empty in-memory report cache
func NewInMemoryReportCache() *InMemoryReportCache {
	return &InMemoryReportCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get loads a cached payload into dest. Returns false on a miss or an
// expired entry.
func (c *InMemoryReportCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, nil
	}

	return true, json.Unmarshal(entry.data, dest)
}

// Set stores a payload under key for ttl. A zero ttl means no expiry.
func (c *InMemoryReportCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()

	return nil
}

// Invalidate drops every cached entry
func (c *InMemoryReportCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

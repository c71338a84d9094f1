package profile

import (
	"sync"
	"time"

	"github.com/unit-selector/app/models"
)

// DefaultTTL bounds how long a cached profile is considered fresh.
const DefaultTTL = 5 * time.Minute

// Entry is one cached profile with the epoch it was installed under.
// The epoch is process-wide monotonic, so two installs never share one
// and derived configurations memoized under an old epoch can never be
// read back for a new profile.
type Entry struct {
	Profile   models.SiteProfile
	Epoch     int64
	FetchedAt time.Time
}

// Cache holds fetched site profiles keyed by site key.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]Entry
	epoch   int64
}

// NewCache builds a cache with the given freshness window; non-positive
// ttl selects DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]Entry),
	}
}

// Get returns the entry for key only while it is still fresh.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.FetchedAt) >= c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// GetAny returns the entry for key regardless of age. Serving a stale
// profile beats serving none while a refresh is in flight.
func (c *Cache) GetAny(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return entry, ok
}

// Install stores a freshly fetched profile under a new epoch and
// returns the resulting entry.
func (c *Cache) Install(key string, p models.SiteProfile) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	entry := Entry{
		Profile:   p,
		Epoch:     c.epoch,
		FetchedAt: time.Now(),
	}
	c.entries[key] = entry
	return entry
}

// Invalidate drops the entry for key, forcing the next read to refetch.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Epoch returns the epoch of the most recent install.
func (c *Cache) Epoch() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Stats reports cache occupancy for the admin surface.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"entries":     len(c.entries),
		"ttl_seconds": c.ttl.Seconds(),
		"epoch":       c.epoch,
	}
}

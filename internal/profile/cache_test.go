package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unit-selector/app/models"
)

func TestCacheInstallAndGet(t *testing.T) {
	c := NewCache(time.Minute)

	entry := c.Install("sitea", models.DefaultProfile())
	assert.Equal(t, int64(1), entry.Epoch)

	got, ok := c.Get("sitea")
	require.True(t, ok)
	assert.Equal(t, models.DefaultBuildingStart, got.Profile.BuildingStart)
	assert.Equal(t, entry.Epoch, got.Epoch)
}

func TestCacheFreshnessWindow(t *testing.T) {
	c := NewCache(30 * time.Millisecond)
	c.Install("sitea", models.DefaultProfile())

	_, ok := c.Get("sitea")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get("sitea")
	assert.False(t, ok, "stale entry must not be served as fresh")

	// Stale reads are still available for fallback.
	stale, ok := c.GetAny("sitea")
	require.True(t, ok)
	assert.Equal(t, int64(1), stale.Epoch)
}

func TestCacheEpochMonotonic(t *testing.T) {
	c := NewCache(time.Minute)

	first := c.Install("sitea", models.DefaultProfile())
	second := c.Install("siteb", models.DefaultProfile())
	third := c.Install("sitea", models.DefaultProfile())

	assert.Equal(t, int64(1), first.Epoch)
	assert.Equal(t, int64(2), second.Epoch)
	assert.Equal(t, int64(3), third.Epoch)
	assert.Equal(t, int64(3), c.Epoch())

	// Reinstalling a site replaces its entry under the new epoch.
	got, ok := c.Get("sitea")
	require.True(t, ok)
	assert.Equal(t, int64(3), got.Epoch)
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(time.Minute)
	c.Install("sitea", models.DefaultProfile())
	c.Install("siteb", models.DefaultProfile())

	c.Invalidate("sitea")
	_, ok := c.GetAny("sitea")
	assert.False(t, ok)
	_, ok = c.GetAny("siteb")
	assert.True(t, ok)

	c.InvalidateAll()
	_, ok = c.GetAny("siteb")
	assert.False(t, ok)

	// The epoch is never reused after invalidation.
	entry := c.Install("sitea", models.DefaultProfile())
	assert.Equal(t, int64(3), entry.Epoch)
}

func TestCacheDefaultTTL(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultTTL, c.TTL())

	c = NewCache(-time.Second)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestCacheStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Install("sitea", models.DefaultProfile())

	stats := c.Stats()
	assert.Equal(t, 1, stats["entries"])
	assert.Equal(t, int64(1), stats["epoch"])
	assert.Equal(t, float64(60), stats["ttl_seconds"])
}

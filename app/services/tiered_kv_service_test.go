package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenKV fails every operation; used to exercise tier fallbacks.
type brokenKV struct {
	err error
}

func (b *brokenKV) Get(ctx context.Context, key string) (string, error) { return "", b.err }
func (b *brokenKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.err
}
func (b *brokenKV) Delete(ctx context.Context, key string) error { return b.err }
func (b *brokenKV) Clear(ctx context.Context) error              { return b.err }
func (b *brokenKV) Exists(ctx context.Context, key string) (bool, error) {
	return false, b.err
}
func (b *brokenKV) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, b.err
}
func (b *brokenKV) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return nil, b.err
}
func (b *brokenKV) Close() error { return b.err }

func TestTieredKVFastHit(t *testing.T) {
	fast := NewMemoryKVService(zap.NewNop())
	slow := NewMemoryKVService(zap.NewNop())
	kv := NewTieredKVService(fast, slow, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, fast.Set(ctx, "k", "fast-value", 0))
	require.NoError(t, slow.Set(ctx, "k", "slow-value", 0))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fast-value", got)
}

func TestTieredKVPromotesSlowHit(t *testing.T) {
	fast := NewMemoryKVService(zap.NewNop())
	slow := NewMemoryKVService(zap.NewNop())
	kv := NewTieredKVService(fast, slow, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, slow.Set(ctx, "k", "v", time.Hour))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	// The slow hit lands in the fast tier with its TTL carried over.
	assert.Eventually(t, func() bool {
		v, err := fast.Get(ctx, "k")
		return err == nil && v == "v"
	}, time.Second, 5*time.Millisecond)

	ttl, err := fast.GetTTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Minute)
}

func TestTieredKVMissBothTiers(t *testing.T) {
	kv := NewTieredKVService(
		NewMemoryKVService(zap.NewNop()),
		NewMemoryKVService(zap.NewNop()),
		zap.NewNop())

	_, err := kv.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrKVMiss)
}

func TestTieredKVSurvivesBrokenFastTier(t *testing.T) {
	slow := NewMemoryKVService(zap.NewNop())
	kv := NewTieredKVService(&brokenKV{err: errors.New("down")}, slow, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, slow.Set(ctx, "k", "v", 0))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	// Writes still succeed as long as the slow tier accepts them.
	require.NoError(t, kv.Set(ctx, "w", "x", 0))
	got, err = slow.Get(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestTieredKVSetFailsWhenSlowTierFails(t *testing.T) {
	kv := NewTieredKVService(
		NewMemoryKVService(zap.NewNop()),
		&brokenKV{err: errors.New("down")},
		zap.NewNop())

	err := kv.Set(context.Background(), "k", "v", 0)
	assert.Error(t, err)
}

func TestTieredKVSetWritesBothTiers(t *testing.T) {
	fast := NewMemoryKVService(zap.NewNop())
	slow := NewMemoryKVService(zap.NewNop())
	kv := NewTieredKVService(fast, slow, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))

	got, err := fast.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	got, err = slow.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestTieredKVDeleteRemovesBothTiers(t *testing.T) {
	fast := NewMemoryKVService(zap.NewNop())
	slow := NewMemoryKVService(zap.NewNop())
	kv := NewTieredKVService(fast, slow, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Delete(ctx, "k"))

	_, err := fast.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKVMiss)
	_, err = slow.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKVMiss)
}

func TestTieredKVStatsShape(t *testing.T) {
	kv := NewTieredKVService(
		NewMemoryKVService(zap.NewNop()),
		&brokenKV{err: errors.New("down")},
		zap.NewNop())

	stats, err := kv.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tiered", stats["backend"])

	l1, ok := stats["l1"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "memory", l1["backend"])

	l2, ok := stats["l2"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, l2, "error")
}

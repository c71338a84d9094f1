package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TieredKVService chains a fast store in front of a durable one. Reads
// try the fast tier first and promote slow-tier hits back into it;
// writes go to both tiers.
type TieredKVService struct {
	fast   KVStore // L1, typically Redis or in-memory
	slow   KVStore // L2, typically MongoDB
	logger *zap.Logger
}

// NewTieredKVService wires a fast tier over a slow one.
func NewTieredKVService(fast, slow KVStore, logger *zap.Logger) *TieredKVService {
	return &TieredKVService{
		fast:   fast,
		slow:   slow,
		logger: logger,
	}
}

// Get reads from the fast tier, falling back to the slow tier. A slow
// hit is written back to the fast tier asynchronously, carrying over
// the remaining TTL.
func (t *TieredKVService) Get(ctx context.Context, key string) (string, error) {
	value, err := t.fast.Get(ctx, key)
	if err == nil {
		t.logger.Debug("L1 kv hit", zap.String("key", key))
		return value, nil
	}
	if !errors.Is(err, ErrKVMiss) {
		t.logger.Warn("L1 kv read failed, trying L2", zap.Error(err), zap.String("key", key))
	}

	value, err = t.slow.Get(ctx, key)
	if err != nil {
		return "", err
	}

	go t.promote(key, value)

	t.logger.Debug("L2 kv hit", zap.String("key", key))
	return value, nil
}

// Set writes to both tiers in parallel. The slow tier's error wins.
func (t *TieredKVService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- t.fast.Set(ctx, key, value, ttl)
	}()

	slowErr := t.slow.Set(ctx, key, value, ttl)
	if fastErr := <-errCh; fastErr != nil {
		t.logger.Warn("L1 kv write failed", zap.Error(fastErr), zap.String("key", key))
	}

	if slowErr != nil {
		return fmt.Errorf("kv set: %w", slowErr)
	}
	return nil
}

// Delete removes a key from both tiers.
func (t *TieredKVService) Delete(ctx context.Context, key string) error {
	errCh := make(chan error, 2)

	go func() {
		errCh <- t.fast.Delete(ctx, key)
	}()
	go func() {
		errCh <- t.slow.Delete(ctx, key)
	}()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("kv delete errors: %v", errs)
	}
	return nil
}

// Clear empties both tiers.
func (t *TieredKVService) Clear(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		errCh <- t.fast.Clear(ctx)
	}()
	go func() {
		errCh <- t.slow.Clear(ctx)
	}()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("kv clear errors: %v", errs)
	}

	t.logger.Info("tiered KV cleared")
	return nil
}

// Exists checks the fast tier first, then the slow one.
func (t *TieredKVService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := t.fast.Exists(ctx, key)
	if err != nil {
		t.logger.Warn("L1 kv exists failed, trying L2", zap.Error(err))
	} else if exists {
		return true, nil
	}

	return t.slow.Exists(ctx, key)
}

// GetTTL prefers the fast tier's answer; when it reports no TTL the
// slow tier is consulted.
func (t *TieredKVService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := t.fast.GetTTL(ctx, key)
	if err == nil && ttl > 0 {
		return ttl, nil
	}
	if err != nil {
		t.logger.Warn("L1 kv ttl failed, trying L2", zap.Error(err))
	}

	return t.slow.GetTTL(ctx, key)
}

// GetStats reports both tiers under "l1" and "l2" keys. A tier whose
// stats call fails is reported as an error string.
func (t *TieredKVService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"backend": "tiered",
	}

	if fastStats, err := t.fast.GetStats(ctx); err != nil {
		stats["l1"] = map[string]interface{}{"error": err.Error()}
	} else {
		stats["l1"] = fastStats
	}

	if slowStats, err := t.slow.GetStats(ctx); err != nil {
		stats["l2"] = map[string]interface{}{"error": err.Error()}
	} else {
		stats["l2"] = slowStats
	}

	return stats, nil
}

// Close closes both tiers.
func (t *TieredKVService) Close() error {
	errCh := make(chan error, 2)

	go func() {
		errCh <- t.fast.Close()
	}()
	go func() {
		errCh <- t.slow.Close()
	}()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("kv close errors: %v", errs)
	}
	return nil
}

// promote copies a slow-tier hit into the fast tier with whatever TTL
// the slow tier still holds.
func (t *TieredKVService) promote(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ttl, err := t.slow.GetTTL(ctx, key)
	if err != nil {
		ttl = 0
	}

	if err := t.fast.Set(ctx, key, value, ttl); err != nil {
		t.logger.Warn("L2 to L1 promotion failed", zap.Error(err), zap.String("key", key))
		return
	}
	t.logger.Debug("promoted key to L1", zap.String("key", key))
}

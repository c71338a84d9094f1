package services

import (
	"context"
	"sync"
	"time"
)

// MemoryKVService is the in-process KVStore. Default backend for tests
// and single-instance deployments with no external storage.
type MemoryKVService struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// NewMemoryKVService creates an empty in-memory store.
func NewMemoryKVService() *MemoryKVService {
	return &MemoryKVService{entries: make(map[string]memoryEntry)}
}

// Get returns the value stored under key, ErrKVMiss when absent or
// expired.
func (m *MemoryKVService) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", ErrKVMiss
	}
	if entry.expired() {
		go m.deleteExpired(key)
		return "", ErrKVMiss
	}
	return entry.value, nil
}

// Set stores value under key; ttl zero keeps it until deleted.
func (m *MemoryKVService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes a key.
func (m *MemoryKVService) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Clear removes everything.
func (m *MemoryKVService) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key holds a live value.
func (m *MemoryKVService) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	return ok && !entry.expired(), nil
}

// GetTTL returns the remaining lifetime of key.
func (m *MemoryKVService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || entry.expiresAt.IsZero() {
		return 0, nil
	}
	remaining := time.Until(entry.expiresAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// GetStats counts live and expired entries.
func (m *MemoryKVService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expired := 0
	for _, entry := range m.entries {
		if entry.expired() {
			expired++
		}
	}
	return map[string]interface{}{
		"backend":       "memory",
		"total_items":   len(m.entries),
		"expired_items": expired,
		"active_items":  len(m.entries) - expired,
	}, nil
}

// CleanupExpired drops every expired entry.
func (m *MemoryKVService) CleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if entry.expired() {
			delete(m.entries, key)
		}
	}
}

// StartCleanupWorker sweeps expired entries on an interval.
func (m *MemoryKVService) StartCleanupWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			m.CleanupExpired()
		}
	}()
}

// Close is a no-op for the in-memory store.
func (m *MemoryKVService) Close() error { return nil }

func (m *MemoryKVService) deleteExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok && entry.expired() {
		delete(m.entries, key)
	}
}

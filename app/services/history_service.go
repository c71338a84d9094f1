package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/unit-selector/app/config"
	"github.com/unit-selector/app/models"
	"github.com/unit-selector/helpers/utils"
)

// HistoryService keeps per-site favorites and recents. Each namespace
// is persisted as one JSON object in the KV store; an in-memory mirror
// carries the lists across persistence outages, so history operations
// never fail, they just stop surviving restarts.
type HistoryService struct {
	kv     KVStore
	logger *zap.Logger
	favKey string
	recKey string

	mu  sync.Mutex
	mem map[string]models.HistorySnapshot
}

// NewHistoryService builds a history service over kv.
func NewHistoryService(kv KVStore, logger *zap.Logger) *HistoryService {
	favKey := config.C.History.FavoritesKey
	recKey := config.C.History.RecentsKey
	d := config.Defaults()
	if favKey == "" {
		favKey = d.History.FavoritesKey
	}
	if recKey == "" {
		recKey = d.History.RecentsKey
	}

	return &HistoryService{
		kv:     kv,
		logger: logger,
		favKey: favKey,
		recKey: recKey,
		mem:    make(map[string]models.HistorySnapshot),
	}
}

// ListFavorites returns the site's favorites, newest first.
func (hs *HistoryService) ListFavorites(ctx context.Context, siteKey string) []string {
	siteKey = orDefaultSite(siteKey)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	return copyList(hs.load(ctx, hs.favKey)[siteKey])
}

// ListRecents returns the site's recent selections, newest first.
func (hs *HistoryService) ListRecents(ctx context.Context, siteKey string) []string {
	siteKey = orDefaultSite(siteKey)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	return copyList(hs.load(ctx, hs.recKey)[siteKey])
}

// ToggleFavorite flips the favorite state of address for the site and
// reports the new state. Adding past the cap drops the oldest entry.
func (hs *HistoryService) ToggleFavorite(ctx context.Context, siteKey, address string) bool {
	if address == "" {
		return false
	}
	siteKey = orDefaultSite(siteKey)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	snap := hs.load(ctx, hs.favKey).Clone()
	list := snap[siteKey]

	nowFavorite := !containsValue(list, address)
	if nowFavorite {
		snap[siteKey] = pushFront(list, address, models.FavoriteLimit)
	} else {
		snap[siteKey] = removeValue(list, address)
	}
	if len(snap[siteKey]) == 0 {
		delete(snap, siteKey)
	}

	hs.store(ctx, hs.favKey, snap)
	return nowFavorite
}

// PushRecent records a completed selection for the site. Duplicates
// move to the front instead of repeating.
func (hs *HistoryService) PushRecent(ctx context.Context, siteKey, address string) {
	if address == "" {
		return
	}
	siteKey = orDefaultSite(siteKey)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	snap := hs.load(ctx, hs.recKey).Clone()
	snap[siteKey] = pushFront(snap[siteKey], address, models.RecentLimit)
	hs.store(ctx, hs.recKey, snap)
}

// Clear drops both history lists for one site, leaving other sites
// untouched.
func (hs *HistoryService) Clear(ctx context.Context, siteKey string) {
	siteKey = orDefaultSite(siteKey)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	for _, storageKey := range []string{hs.favKey, hs.recKey} {
		snap := hs.load(ctx, storageKey).Clone()
		if _, ok := snap[siteKey]; !ok {
			continue
		}
		delete(snap, siteKey)
		hs.store(ctx, storageKey, snap)
	}
}

// load returns the persisted namespace, falling back to the in-memory
// mirror when the store is unavailable or the payload is corrupt.
// Callers must hold hs.mu.
func (hs *HistoryService) load(ctx context.Context, storageKey string) models.HistorySnapshot {
	raw, err := hs.kv.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, ErrKVMiss) {
			hs.logger.Debug("history read failed, serving in-memory copy",
				zap.Error(err), zap.String("key", storageKey))
		}
		return hs.mirror(storageKey)
	}

	var snap models.HistorySnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		hs.logger.Warn("corrupt history payload, serving in-memory copy",
			zap.Error(err), zap.String("key", storageKey))
		return hs.mirror(storageKey)
	}
	if snap == nil {
		snap = models.HistorySnapshot{}
	}

	hs.mem[storageKey] = snap
	return snap
}

// store updates the mirror first, then persists best-effort.
// Callers must hold hs.mu.
func (hs *HistoryService) store(ctx context.Context, storageKey string, snap models.HistorySnapshot) {
	hs.mem[storageKey] = snap

	raw, err := json.Marshal(snap)
	if err != nil {
		hs.logger.Warn("history marshal failed", zap.Error(err), zap.String("key", storageKey))
		return
	}
	if err := hs.kv.Set(ctx, storageKey, string(raw), 0); err != nil {
		hs.logger.Debug("history write failed, keeping in-memory copy",
			zap.Error(err), zap.String("key", storageKey))
	}
}

func (hs *HistoryService) mirror(storageKey string) models.HistorySnapshot {
	snap, ok := hs.mem[storageKey]
	if !ok {
		snap = models.HistorySnapshot{}
		hs.mem[storageKey] = snap
	}
	return snap
}

func orDefaultSite(siteKey string) string {
	if siteKey == "" {
		return utils.SiteKeyDefault
	}
	return siteKey
}

// pushFront prepends value, collapsing any duplicate and truncating to
// limit.
func pushFront(list []string, value string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, value)
	for _, v := range list {
		if v == value {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

func removeValue(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func containsValue(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func copyList(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

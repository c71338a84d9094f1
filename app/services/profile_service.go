package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unit-selector/app/config"
	"github.com/unit-selector/app/models"
	"github.com/unit-selector/helpers/utils"
	"github.com/unit-selector/internal/layout"
	"github.com/unit-selector/internal/profile"
)

// ProfileService hands out site profiles without ever blocking the
// caller on the portal. Reads are served from cache (stale if need be,
// built-in defaults as the last resort) while fetches run in the
// background and install on arrival.
type ProfileService struct {
	source   profile.Source
	cache    *profile.Cache
	resolver *layout.Resolver
	logger   *zap.Logger

	mu         sync.Mutex
	inflight   map[string]bool
	currentKey string
	onInstall  func(key string, entry profile.Entry)
}

// NewProfileService wires a source, cache, and layout resolver.
func NewProfileService(source profile.Source, cache *profile.Cache, resolver *layout.Resolver, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		source:   source,
		cache:    cache,
		resolver: resolver,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Snapshot returns the best profile available right now together with
// its epoch. A fresh cache entry is returned as-is; otherwise a
// background fetch is kicked off and the stale entry, or the built-in
// default at epoch zero, is served meanwhile.
func (ps *ProfileService) Snapshot(site models.SiteRef) (models.SiteProfile, int64) {
	key := utils.SiteKey(site.Code, site.Name)

	if entry, ok := ps.cache.Get(key); ok {
		return entry.Profile, entry.Epoch
	}

	ps.fetchAsync(site, key)

	if entry, ok := ps.cache.GetAny(key); ok {
		return entry.Profile, entry.Epoch
	}
	return models.DefaultProfile(), 0
}

// Refresh forces a background refetch for site even when the cached
// entry is still fresh.
func (ps *ProfileService) Refresh(site models.SiteRef) {
	ps.fetchAsync(site, utils.SiteKey(site.Code, site.Name))
}

// FetchNow fetches synchronously and installs the result, subject to
// the same active-site guard as background fetches. Used by the warm
// worker, which never pins an active site.
func (ps *ProfileService) FetchNow(ctx context.Context, site models.SiteRef) (models.SiteProfile, int64, error) {
	key := utils.SiteKey(site.Code, site.Name)

	p, err := ps.source.Fetch(ctx, site)
	if err != nil {
		return models.SiteProfile{}, 0, err
	}

	entry, installed := ps.install(key, p)
	if !installed {
		return p, 0, nil
	}
	return entry.Profile, entry.Epoch, nil
}

// SetActiveSite pins the site whose profile installs are applicable.
// Fetch results for any other site are discarded on arrival rather
// than applied. Returns the site key.
func (ps *ProfileService) SetActiveSite(site models.SiteRef) string {
	key := utils.SiteKey(site.Code, site.Name)

	ps.mu.Lock()
	ps.currentKey = key
	ps.mu.Unlock()

	return key
}

// OnInstall registers a callback fired after each applied profile
// install.
func (ps *ProfileService) OnInstall(fn func(key string, entry profile.Entry)) {
	ps.mu.Lock()
	ps.onInstall = fn
	ps.mu.Unlock()
}

// Resolve derives the effective building configuration under the given
// profile and epoch.
func (ps *ProfileService) Resolve(p models.SiteProfile, epoch int64, buildingID string) models.BuildingConfig {
	return ps.resolver.Resolve(p, epoch, buildingID)
}

// Buildings returns the building id sequence of the site's current
// snapshot.
func (ps *ProfileService) Buildings(site models.SiteRef) []string {
	p, _ := ps.Snapshot(site)
	return p.BuildingIDs()
}

// InvalidateAll drops every cached profile and derived configuration,
// forcing refetches on the next read.
func (ps *ProfileService) InvalidateAll() {
	ps.cache.InvalidateAll()
	ps.resolver.Invalidate()
	ps.logger.Info("profile cache invalidated")
}

// Stats reports cache and fetch state for the admin surface.
func (ps *ProfileService) Stats() map[string]interface{} {
	ps.mu.Lock()
	inflight := len(ps.inflight)
	current := ps.currentKey
	ps.mu.Unlock()

	stats := ps.cache.Stats()
	stats["inflight_fetches"] = inflight
	stats["active_site"] = current
	stats["resolver_memo"] = ps.resolver.MemoLen()
	return stats
}

// fetchAsync starts one background fetch per key at a time.
func (ps *ProfileService) fetchAsync(site models.SiteRef, key string) {
	ps.mu.Lock()
	if ps.inflight[key] {
		ps.mu.Unlock()
		return
	}
	ps.inflight[key] = true
	ps.mu.Unlock()

	fetchID := uuid.NewString()
	ps.logger.Debug("profile fetch queued",
		zap.String("site_key", key),
		zap.String("fetch_id", fetchID))

	go func() {
		defer func() {
			ps.mu.Lock()
			delete(ps.inflight, key)
			ps.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), config.FetchTimeout())
		defer cancel()

		p, err := ps.source.Fetch(ctx, site)
		if err != nil {
			if errors.Is(err, profile.ErrNoProfile) {
				ps.logger.Debug("site has no profile, defaults stay in effect",
					zap.String("site_key", key),
					zap.String("fetch_id", fetchID))
			} else {
				ps.logger.Warn("profile fetch failed",
					zap.Error(err),
					zap.String("site_key", key),
					zap.String("fetch_id", fetchID))
			}
			return
		}

		if _, installed := ps.install(key, p); !installed {
			ps.logger.Debug("discarded profile for inactive site",
				zap.String("site_key", key),
				zap.String("fetch_id", fetchID))
		}
	}()
}

// install applies a fetched profile unless the active site has moved
// elsewhere since the fetch started.
func (ps *ProfileService) install(key string, p models.SiteProfile) (profile.Entry, bool) {
	ps.mu.Lock()
	if ps.currentKey != "" && ps.currentKey != key {
		ps.mu.Unlock()
		return profile.Entry{}, false
	}
	cb := ps.onInstall
	ps.mu.Unlock()

	entry := ps.cache.Install(key, p)
	ps.resolver.Invalidate()

	ps.logger.Info("site profile installed",
		zap.String("site_key", key),
		zap.Int64("epoch", entry.Epoch),
		zap.Int("building_count", p.BuildingCount),
		zap.Int("override_count", len(p.BuildingOverrides)))

	if cb != nil {
		cb(key, entry)
	}
	return entry, true
}

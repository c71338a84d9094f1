package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unit-selector/app/config"
	"github.com/unit-selector/app/models"
	"github.com/unit-selector/helpers/utils"
	"github.com/unit-selector/internal/candidate"
	"github.com/unit-selector/internal/normalizer"
	"github.com/unit-selector/internal/search"
)

// View modes for the unit picker surface.
const (
	ViewModeStructure = "structure" // building/floor/line drill-down
	ViewModeSearch    = "search"    // ranked results for the typed query
	ViewModeGrid      = "grid"      // compact grid for narrow layouts

	gridMaxWidth = 600
)

// ViewModeFor picks the presentation for the given viewport width and
// query length. A non-empty query always wins.
func ViewModeFor(width, queryLen int) string {
	if queryLen > 0 {
		return ViewModeSearch
	}
	if width > 0 && width < gridMaxWidth {
		return ViewModeGrid
	}
	return ViewModeStructure
}

// ValueChange describes one committed selector mutation, delivered to
// OnChange listeners.
type ValueChange struct {
	Site      string    `json:"site"`
	Value     string    `json:"value"`
	Complete  bool      `json:"complete"`
	ChangedAt time.Time `json:"changed_at"`
}

// SelectorService is the unit selection engine: it tracks the active
// site and value, normalizes input, searches the candidate space, and
// records completed selections into history.
type SelectorService struct {
	profiles   *ProfileService
	history    *HistoryService
	normalizer *normalizer.UnitNormalizer
	engine     *search.Engine
	logger     *zap.Logger
	startTime  time.Time

	mu       sync.RWMutex
	site     models.SiteRef
	value    models.ParsedAddress
	building string
	onChange func(ValueChange)
}

// NewSelectorService wires the selection engine together.
func NewSelectorService(profiles *ProfileService, history *HistoryService, n *normalizer.UnitNormalizer, engine *search.Engine, logger *zap.Logger) *SelectorService {
	return &SelectorService{
		profiles:   profiles,
		history:    history,
		normalizer: n,
		engine:     engine,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SetSite switches the active site, clearing the current value and
// building context, and kicks a profile fetch for the new site.
// Returns the site key.
func (ss *SelectorService) SetSite(site models.SiteRef) string {
	key := ss.profiles.SetActiveSite(site)

	ss.mu.Lock()
	ss.site = site
	ss.value = models.ParsedAddress{}
	ss.building = ""
	cb := ss.onChange
	ss.mu.Unlock()

	ss.profiles.Snapshot(site)

	ss.logger.Info("active site changed", zap.String("site_key", key))
	if cb != nil {
		cb(ValueChange{Site: key, ChangedAt: time.Now()})
	}
	return key
}

// Site returns the active site.
func (ss *SelectorService) Site() models.SiteRef {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.site
}

// SetValue normalizes text against the current building context and
// commits it as the selector value. Completed selections are pushed
// into the site's recents.
func (ss *SelectorService) SetValue(ctx context.Context, text string) models.ParsedAddress {
	return ss.commit(ctx, text, false)
}

// SetInitialValue seeds the selector from a stored value, without
// treating it as a user selection: history is left untouched.
func (ss *SelectorService) SetInitialValue(ctx context.Context, text string) models.ParsedAddress {
	return ss.commit(ctx, text, true)
}

// GetValue returns the committed selector value.
func (ss *SelectorService) GetValue() models.ParsedAddress {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.value
}

// Normalize parses text against an explicitly supplied building
// context, without touching selector state.
func (ss *SelectorService) Normalize(text, building string) models.ParsedAddress {
	return ss.normalizer.Normalize(text, building)
}

// Refresh forces a profile refetch for the active site.
func (ss *SelectorService) Refresh() {
	ss.profiles.Refresh(ss.Site())
}

// SearchSite runs the ranked search for query over the site's full
// candidate pool. An empty building falls back to the selector's own
// building context when site is the active site.
func (ss *SelectorService) SearchSite(ctx context.Context, site models.SiteRef, query, building string) []string {
	building = ss.effectiveBuilding(site, building)
	pool := ss.searchPool(ctx, site)
	return ss.engine.Search(query, pool, building)
}

// SearchWithSuggestions behaves like SearchSite but, when a non-empty
// query matches nothing, proposes the nearest candidates instead of an
// empty screen.
func (ss *SelectorService) SearchWithSuggestions(ctx context.Context, site models.SiteRef, query, building string) ([]string, []search.Suggestion) {
	building = ss.effectiveBuilding(site, building)
	pool := ss.searchPool(ctx, site)

	results := ss.engine.Search(query, pool, building)
	if len(results) > 0 || strings.TrimSpace(query) == "" {
		return results, nil
	}

	suggestions := search.Nearest(
		normalizer.Compact(query),
		pool,
		config.C.Engine.SuggestLimit,
		config.C.Engine.SuggestThreshold)
	return results, suggestions
}

// Buildings returns the site's building ids.
func (ss *SelectorService) Buildings(site models.SiteRef) []string {
	return ss.profiles.Buildings(site)
}

// CandidatesForBuilding enumerates every unit of one building under the
// site's current profile.
func (ss *SelectorService) CandidatesForBuilding(site models.SiteRef, buildingID string) []string {
	p, epoch := ss.profiles.Snapshot(site)
	cfg := ss.profiles.Resolve(p, epoch, buildingID)
	return candidate.GenerateForBuilding(cfg)
}

// OnChange registers a listener for committed value changes.
func (ss *SelectorService) OnChange(fn func(ValueChange)) {
	ss.mu.Lock()
	ss.onChange = fn
	ss.mu.Unlock()
}

// GetStats reports engine state for the admin surface.
func (ss *SelectorService) GetStats() map[string]interface{} {
	ss.mu.RLock()
	site := ss.site
	value := ss.value
	ss.mu.RUnlock()

	return map[string]interface{}{
		"uptime_seconds": time.Since(ss.startTime).Seconds(),
		"active_site":    utils.SiteKey(site.Code, site.Name),
		"value":          value.Normalized,
		"value_complete": value.Complete,
	}
}

func (ss *SelectorService) commit(ctx context.Context, text string, initial bool) models.ParsedAddress {
	ss.mu.Lock()
	site := ss.site
	parsed := ss.normalizer.Normalize(text, ss.building)
	ss.value = parsed
	if parsed.Complete {
		ss.building = parsed.Building
	}
	cb := ss.onChange
	ss.mu.Unlock()

	siteKey := utils.SiteKey(site.Code, site.Name)
	if parsed.Complete && !initial {
		ss.history.PushRecent(ctx, siteKey, parsed.Normalized)
	}

	ss.logger.Debug("selector value committed",
		zap.String("site_key", siteKey),
		zap.String("value", parsed.Normalized),
		zap.Bool("complete", parsed.Complete),
		zap.Bool("initial", initial))

	if cb != nil {
		cb(ValueChange{
			Site:      siteKey,
			Value:     parsed.Normalized,
			Complete:  parsed.Complete,
			ChangedAt: time.Now(),
		})
	}
	return parsed
}

// searchPool assembles the ranked-search input: favorites first, then
// recents, then the generated candidate space. The engine dedups.
func (ss *SelectorService) searchPool(ctx context.Context, site models.SiteRef) []string {
	siteKey := utils.SiteKey(site.Code, site.Name)
	p, epoch := ss.profiles.Snapshot(site)

	favorites := ss.history.ListFavorites(ctx, siteKey)
	recents := ss.history.ListRecents(ctx, siteKey)

	limit := config.C.Engine.CandidateLimit
	if limit <= 0 {
		limit = candidate.DefaultLimit
	}
	generated := candidate.Generate(p.BuildingIDs(), limit, func(buildingID string) models.BuildingConfig {
		return ss.profiles.Resolve(p, epoch, buildingID)
	})

	pool := make([]string, 0, len(favorites)+len(recents)+len(generated))
	pool = append(pool, favorites...)
	pool = append(pool, recents...)
	pool = append(pool, generated...)
	return pool
}

// effectiveBuilding substitutes the selector's own building context
// when the caller left it blank and is querying the active site.
func (ss *SelectorService) effectiveBuilding(site models.SiteRef, building string) string {
	if building != "" {
		return building
	}

	ss.mu.RLock()
	defer ss.mu.RUnlock()
	if utils.SiteKey(site.Code, site.Name) == utils.SiteKey(ss.site.Code, ss.site.Name) {
		return ss.building
	}
	return ""
}

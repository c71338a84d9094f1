package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unit-selector/app/models"
	"github.com/unit-selector/internal/layout"
	"github.com/unit-selector/internal/normalizer"
	"github.com/unit-selector/internal/profile"
	"github.com/unit-selector/internal/search"
)

func smallProfile() models.SiteProfile {
	p := models.DefaultProfile()
	p.BuildingCount = 2
	p.DefaultLineCount = 4
	p.DefaultMaxFloor = 15
	return p
}

func newTestSelector(t *testing.T, p models.SiteProfile) (*SelectorService, *HistoryService, *ProfileService) {
	t.Helper()

	resolver, err := layout.NewResolver()
	require.NoError(t, err)

	profiles := NewProfileService(&fakeSource{profile: p}, profile.NewCache(time.Minute), resolver, zap.NewNop())
	history := NewHistoryService(NewMemoryKVService(zap.NewNop()), zap.NewNop())
	n := normalizer.NewUnitNormalizer()
	engine := search.NewEngine(n, zap.NewNop())

	return NewSelectorService(profiles, history, n, engine, zap.NewNop()), history, profiles
}

// activateSite pins the site and installs its profile synchronously so
// tests see a deterministic candidate space.
func activateSite(t *testing.T, ss *SelectorService, profiles *ProfileService, site models.SiteRef) {
	t.Helper()

	ss.SetSite(site)
	_, _, err := profiles.FetchNow(context.Background(), site)
	require.NoError(t, err)
}

func TestViewModeFor(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		queryLen int
		want     string
	}{
		{"no width no query", 0, 0, ViewModeStructure},
		{"wide no query", 1024, 0, ViewModeStructure},
		{"boundary width", 600, 0, ViewModeStructure},
		{"narrow no query", 599, 0, ViewModeGrid},
		{"phone width", 320, 0, ViewModeGrid},
		{"query wins over width", 320, 3, ViewModeSearch},
		{"query wins when wide", 1024, 5, ViewModeSearch},
		{"query without width", 0, 1, ViewModeSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ViewModeFor(tt.width, tt.queryLen))
		})
	}
}

func TestSetValueCommitsAndRecordsRecent(t *testing.T) {
	ss, history, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	parsed := ss.SetValue(ctx, "101동 1203호")
	assert.True(t, parsed.Complete)
	assert.Equal(t, "101-1203", parsed.Normalized)
	assert.Equal(t, parsed, ss.GetValue())

	assert.Equal(t, []string{"101-1203"}, history.ListRecents(ctx, "sitea"))
}

func TestSetValueUsesBuildingContextForBareUnits(t *testing.T) {
	ss, history, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	ss.SetValue(ctx, "101-1203")
	parsed := ss.SetValue(ctx, "904호")

	assert.True(t, parsed.Complete)
	assert.Equal(t, "101-904", parsed.Normalized)
	assert.Equal(t, []string{"101-904", "101-1203"}, history.ListRecents(ctx, "sitea"))
}

func TestIncompleteValueKeepsBuildingContext(t *testing.T) {
	ss, history, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	ss.SetValue(ctx, "102-301")
	parsed := ss.SetValue(ctx, "front desk")
	assert.False(t, parsed.Complete)
	assert.Equal(t, "front desk", parsed.Normalized)

	// The free-text value neither reaches history nor resets the
	// building context.
	assert.Equal(t, []string{"102-301"}, history.ListRecents(ctx, "sitea"))
	parsed = ss.SetValue(ctx, "502호")
	assert.Equal(t, "102-502", parsed.Normalized)
}

func TestSetInitialValueSkipsHistory(t *testing.T) {
	ss, history, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	parsed := ss.SetInitialValue(ctx, "101-1203")
	assert.True(t, parsed.Complete)
	assert.Equal(t, parsed, ss.GetValue())
	assert.Empty(t, history.ListRecents(ctx, "sitea"))
}

func TestSetSiteClearsValue(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	siteA := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, siteA)
	ctx := context.Background()

	ss.SetValue(ctx, "101-1203")
	require.True(t, ss.GetValue().Complete)

	key := ss.SetSite(models.SiteRef{Code: "siteb"})
	assert.Equal(t, "siteb", key)
	assert.Equal(t, models.ParsedAddress{}, ss.GetValue())

	// The cleared building context no longer completes bare units.
	parsed := ss.SetValue(ctx, "904호")
	assert.False(t, parsed.Complete)
	assert.Equal(t, "904", parsed.Normalized)
}

func TestOnChangeListener(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)

	var mu sync.Mutex
	var changes []ValueChange
	ss.OnChange(func(c ValueChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	ss.SetValue(context.Background(), "101동 1203호")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 1)
	assert.Equal(t, "sitea", changes[0].Site)
	assert.Equal(t, "101-1203", changes[0].Value)
	assert.True(t, changes[0].Complete)
	assert.False(t, changes[0].ChangedAt.IsZero())
}

func TestSearchEmptyQueryPrecedence(t *testing.T) {
	ss, history, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	history.ToggleFavorite(ctx, "sitea", "102-202")
	history.PushRecent(ctx, "sitea", "101-101")

	got := ss.SearchSite(ctx, site, "", "")
	require.NotEmpty(t, got)
	assert.Equal(t, "102-202", got[0])
	assert.Equal(t, "101-101", got[1])
	// The recent duplicates out of the generated space; enumeration
	// continues after it.
	assert.Equal(t, "101-102", got[2])
	assert.Len(t, got, search.ResultLimit)
}

func TestSearchExactMatchFirst(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)

	got := ss.SearchSite(context.Background(), site, "101동 1203호", "")
	require.NotEmpty(t, got)
	assert.Equal(t, "101-1203", got[0])
}

func TestSearchUsesSelectorBuildingContext(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	ss.SetValue(ctx, "101-1203")

	got := ss.SearchSite(ctx, site, "904호", "")
	require.NotEmpty(t, got)
	assert.Equal(t, "101-904", got[0], "bare unit resolves against the current building first")

	// An explicit building beats the selector context.
	got = ss.SearchSite(ctx, site, "904호", "102")
	require.NotEmpty(t, got)
	assert.Equal(t, "102-904", got[0])
}

func TestSearchWithSuggestions(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)
	ctx := context.Background()

	// A dot instead of the dash defeats every score rule, so the ranked
	// search comes back empty and near-misses take over.
	results, suggestions := ss.SearchWithSuggestions(ctx, site, "101.1203", "")
	assert.Empty(t, results)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "101-1203", suggestions[0].Address)
	assert.LessOrEqual(t, len(suggestions), search.SuggestLimit)

	// Matches suppress suggestions.
	results, suggestions = ss.SearchWithSuggestions(ctx, site, "101-1203", "")
	assert.NotEmpty(t, results)
	assert.Nil(t, suggestions)

	// So does an empty query.
	_, suggestions = ss.SearchWithSuggestions(ctx, site, "   ", "")
	assert.Nil(t, suggestions)
}

func TestBuildingsAndCandidates(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)

	assert.Equal(t, []string{"101", "102"}, ss.Buildings(site))

	units := ss.CandidatesForBuilding(site, "101")
	assert.Len(t, units, 4*15)
	assert.Equal(t, "101-101", units[0])
	assert.Equal(t, "101-1504", units[len(units)-1])
}

func TestSelectorStats(t *testing.T) {
	ss, _, profiles := newTestSelector(t, smallProfile())
	site := models.SiteRef{Code: "sitea"}
	activateSite(t, ss, profiles, site)

	ss.SetValue(context.Background(), "101-1203")

	stats := ss.GetStats()
	assert.Equal(t, "sitea", stats["active_site"])
	assert.Equal(t, "101-1203", stats["value"])
	assert.Equal(t, true, stats["value_complete"])
	assert.Contains(t, stats, "uptime_seconds")
}

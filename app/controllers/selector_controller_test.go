package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unit-selector/app/models"
	"github.com/unit-selector/app/responses"
	"github.com/unit-selector/app/services"
	"github.com/unit-selector/internal/layout"
	"github.com/unit-selector/internal/normalizer"
	"github.com/unit-selector/internal/profile"
	"github.com/unit-selector/internal/search"
)

// newTestStack builds the full engine over in-memory backends and a
// static profile source.
func newTestStack(t *testing.T) (*gin.Engine, *services.SelectorService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()

	resolver, err := layout.NewResolver()
	require.NoError(t, err)

	profiles := services.NewProfileService(
		profile.NewStaticSource(models.DefaultProfile()),
		profile.NewCache(time.Minute),
		resolver,
		logger)

	kv := services.NewMemoryKVService()
	history := services.NewHistoryService(kv, logger)
	n := normalizer.NewUnitNormalizer()
	engine := search.NewEngine(n, logger)
	selector := services.NewSelectorService(profiles, history, n, engine, logger)

	selectorController := NewSelectorController(selector, history, logger)
	adminController := NewAdminController(selector, profiles, kv, logger)

	router := gin.New()
	SetupTestRoutes(router, selectorController, adminController)
	return router, selector
}

// SetupTestRoutes mirrors the production route table minus the logging
// middleware.
func SetupTestRoutes(router *gin.Engine, sc *SelectorController, ac *AdminController) {
	v1 := router.Group("/api/v1")
	{
		selector := v1.Group("/selector")
		{
			selector.POST("/normalize", sc.Normalize)
			selector.GET("/suggest", sc.Suggest)
			selector.POST("/select", sc.Select)
			selector.GET("/value", sc.GetValue)
			selector.POST("/site", sc.SetSite)
			selector.GET("/buildings", sc.Buildings)
			selector.GET("/buildings/:building/units", sc.Candidates)
		}
		history := v1.Group("/history")
		{
			history.GET("", sc.History)
			history.POST("/favorites/toggle", sc.ToggleFavorite)
			history.DELETE("", sc.ClearHistory)
		}
		admin := v1.Group("/admin")
		{
			admin.POST("/profiles/refresh", ac.RefreshProfile)
			admin.POST("/profiles/invalidate", ac.InvalidateProfiles)
			admin.GET("/stats", ac.GetStats)
		}
		v1.GET("/health", sc.HealthCheck)
	}
	router.GET("/health", sc.HealthCheck)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestNormalizeEndpoint(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/selector/normalize",
		gin.H{"text": "101동 1203호"})
	require.Equal(t, http.StatusOK, w.Code)

	var parsed models.ParsedAddress
	decodeInto(t, w, &parsed)
	assert.Equal(t, "101-1203", parsed.Normalized)
	assert.True(t, parsed.Complete)
}

func TestNormalizeEndpointWithBuildingContext(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/selector/normalize",
		gin.H{"text": "904호", "building": "102"})
	require.Equal(t, http.StatusOK, w.Code)

	var parsed models.ParsedAddress
	decodeInto(t, w, &parsed)
	assert.Equal(t, "102-904", parsed.Normalized)
}

func TestNormalizeEndpointRejectsMissingText(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/selector/normalize", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var errResp responses.ErrorResponse
	decodeInto(t, w, &errResp)
	assert.Equal(t, "INVALID_REQUEST", errResp.Error)
}

func TestSuggestEndpoint(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/selector/suggest?q=101-1203", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.SuggestResponse
	decodeInto(t, w, &resp)
	assert.Equal(t, services.ViewModeSearch, resp.ViewMode)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "101-1203", resp.Results[0])
	assert.Equal(t, len(resp.Results), resp.Total)
}

func TestSuggestEndpointEmptyQueryNarrowViewport(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/selector/suggest?width=320", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.SuggestResponse
	decodeInto(t, w, &resp)
	assert.Equal(t, services.ViewModeGrid, resp.ViewMode)
	assert.Len(t, resp.Results, search.ResultLimit)
	assert.Equal(t, "101-101", resp.Results[0])
}

func TestSelectAndValueEndpoints(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/selector/select",
		gin.H{"address": "101동 1203호"})
	require.Equal(t, http.StatusOK, w.Code)

	var parsed models.ParsedAddress
	decodeInto(t, w, &parsed)
	assert.True(t, parsed.Complete)

	w = doJSON(t, router, http.MethodGet, "/api/v1/selector/value", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var current models.ParsedAddress
	decodeInto(t, w, &current)
	assert.Equal(t, parsed, current)

	// The completed selection shows up in recents.
	w = doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var hist responses.HistoryResponse
	decodeInto(t, w, &hist)
	assert.Contains(t, hist.Recents, "101-1203")
}

func TestSelectInitialSkipsHistory(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/selector/select",
		gin.H{"address": "101-1203", "initial": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	var hist responses.HistoryResponse
	decodeInto(t, w, &hist)
	assert.Empty(t, hist.Recents)
}

func TestSetSiteEndpoint(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/selector/site",
		gin.H{"site_code": "B-Block"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.SiteResponse
	decodeInto(t, w, &resp)
	assert.Equal(t, "b-block", resp.SiteKey)
	require.Len(t, resp.Buildings, models.DefaultBuildingCount)
	assert.Equal(t, "101", resp.Buildings[0])
}

func TestBuildingsAndUnitsEndpoints(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/selector/buildings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var buildings responses.BuildingsResponse
	decodeInto(t, w, &buildings)
	assert.Equal(t, "default", buildings.Site)
	assert.Len(t, buildings.Buildings, models.DefaultBuildingCount)

	w = doJSON(t, router, http.MethodGet, "/api/v1/selector/buildings/101/units", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var units responses.CandidatesResponse
	decodeInto(t, w, &units)
	assert.Equal(t, "101", units.Building)
	assert.Equal(t, models.DefaultMaxFloor*models.DefaultLineCount, units.Total)
	assert.Equal(t, "101-101", units.Candidates[0])
}

func TestFavoriteToggleAndClearEndpoints(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/history/favorites/toggle",
		gin.H{"address": "101-904"})
	require.Equal(t, http.StatusOK, w.Code)

	var toggle responses.FavoriteToggleResponse
	decodeInto(t, w, &toggle)
	assert.True(t, toggle.Favorite)

	w = doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	var hist responses.HistoryResponse
	decodeInto(t, w, &hist)
	assert.Equal(t, []string{"101-904"}, hist.Favorites)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	decodeInto(t, w, &hist)
	assert.Empty(t, hist.Favorites)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestStack(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var health responses.HealthResponse
		decodeInto(t, w, &health)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "unit-selector", health.Service)
	}
}

func TestAdminStatsEndpoint(t *testing.T) {
	router, selector := newTestStack(t)
	selector.SetSite(models.SiteRef{Code: "sitea"})

	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats responses.StatsResponse
	decodeInto(t, w, &stats)
	assert.Equal(t, "sitea", stats.Selector["active_site"])
	assert.Contains(t, stats.Profiles, "entries")
	assert.Equal(t, "memory", stats.KV["backend"])
}

func TestAdminRefreshAndInvalidateEndpoints(t *testing.T) {
	router, _ := newTestStack(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/profiles/refresh",
		gin.H{"site_code": "sitea"})
	require.Equal(t, http.StatusOK, w.Code)

	var ok responses.SuccessResponse
	decodeInto(t, w, &ok)
	assert.True(t, ok.Success)

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/profiles/invalidate", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unit-selector/app/models"
	"github.com/unit-selector/app/requests"
	"github.com/unit-selector/app/responses"
	"github.com/unit-selector/app/services"
	"github.com/unit-selector/helpers/utils"
)

// serviceVersion is reported by health and banner endpoints.
const serviceVersion = "1.0.0"

// SelectorController exposes the unit selection engine over HTTP.
type SelectorController struct {
	selector  *services.SelectorService
	history   *services.HistoryService
	logger    *zap.Logger
	startTime time.Time
}

// NewSelectorController wires the selector endpoints.
func NewSelectorController(selector *services.SelectorService, history *services.HistoryService, logger *zap.Logger) *SelectorController {
	return &SelectorController{
		selector:  selector,
		history:   history,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Normalize parses raw unit text. Selector state is not touched.
func (sc *SelectorController) Normalize(c *gin.Context) {
	var req requests.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, sc.selector.Normalize(req.Text, req.Building))
}

// Suggest runs the ranked search and picks the view mode.
func (sc *SelectorController) Suggest(c *gin.Context) {
	var q requests.SuggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid query: " + err.Error(),
		})
		return
	}

	site := models.SiteRef{Code: q.SiteCode, Name: q.SiteName}
	results, suggestions := sc.selector.SearchWithSuggestions(c.Request.Context(), site, q.Q, q.Building)

	c.JSON(http.StatusOK, responses.SuggestResponse{
		Query:       q.Q,
		ViewMode:    services.ViewModeFor(q.Width, len(strings.TrimSpace(q.Q))),
		Results:     results,
		Suggestions: suggestions,
		Total:       len(results),
	})
}

// Select commits a selector value for the active site.
func (sc *SelectorController) Select(c *gin.Context) {
	var req requests.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	var parsed models.ParsedAddress
	if req.Initial {
		parsed = sc.selector.SetInitialValue(c.Request.Context(), req.Address)
	} else {
		parsed = sc.selector.SetValue(c.Request.Context(), req.Address)
	}

	c.JSON(http.StatusOK, parsed)
}

// GetValue returns the committed selector value.
func (sc *SelectorController) GetValue(c *gin.Context) {
	c.JSON(http.StatusOK, sc.selector.GetValue())
}

// SetSite switches the active site and reports its buildings.
func (sc *SelectorController) SetSite(c *gin.Context) {
	var req requests.SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	site := models.SiteRef{Code: req.SiteCode, Name: req.SiteName}
	key := sc.selector.SetSite(site)

	c.JSON(http.StatusOK, responses.SiteResponse{
		SiteKey:   key,
		Buildings: sc.selector.Buildings(site),
	})
}

// Buildings lists the building ids of a site.
func (sc *SelectorController) Buildings(c *gin.Context) {
	var q requests.SiteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid query: " + err.Error(),
		})
		return
	}

	site := models.SiteRef{Code: q.SiteCode, Name: q.SiteName}
	c.JSON(http.StatusOK, responses.BuildingsResponse{
		Site:      utils.SiteKey(site.Code, site.Name),
		Buildings: sc.selector.Buildings(site),
	})
}

// Candidates enumerates every unit of one building.
func (sc *SelectorController) Candidates(c *gin.Context) {
	building := c.Param("building")
	if building == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "building id is required",
		})
		return
	}

	var q requests.SiteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid query: " + err.Error(),
		})
		return
	}

	site := models.SiteRef{Code: q.SiteCode, Name: q.SiteName}
	units := sc.selector.CandidatesForBuilding(site, building)

	c.JSON(http.StatusOK, responses.CandidatesResponse{
		Building:   building,
		Candidates: units,
		Total:      len(units),
	})
}

// History returns both history lists for a site.
func (sc *SelectorController) History(c *gin.Context) {
	var q requests.SiteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid query: " + err.Error(),
		})
		return
	}

	siteKey := utils.SiteKey(q.SiteCode, q.SiteName)
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, responses.HistoryResponse{
		Site:      siteKey,
		Favorites: sc.history.ListFavorites(ctx, siteKey),
		Recents:   sc.history.ListRecents(ctx, siteKey),
	})
}

// ToggleFavorite flips the favorite state of one address.
func (sc *SelectorController) ToggleFavorite(c *gin.Context) {
	var req requests.FavoriteToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	siteKey := utils.SiteKey(req.SiteCode, req.SiteName)
	favorite := sc.history.ToggleFavorite(c.Request.Context(), siteKey, req.Address)

	c.JSON(http.StatusOK, responses.FavoriteToggleResponse{
		Address:  req.Address,
		Favorite: favorite,
	})
}

// ClearHistory drops both history lists for a site.
func (sc *SelectorController) ClearHistory(c *gin.Context) {
	var q requests.SiteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid query: " + err.Error(),
		})
		return
	}

	siteKey := utils.SiteKey(q.SiteCode, q.SiteName)
	sc.history.Clear(c.Request.Context(), siteKey)

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "history cleared for " + siteKey,
	})
}

// HealthCheck reports liveness.
func (sc *SelectorController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:        "healthy",
		Service:       "unit-selector",
		Version:       serviceVersion,
		UptimeSeconds: time.Since(sc.startTime).Seconds(),
	})
}

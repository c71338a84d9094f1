package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unit-selector/app/models"
	"github.com/unit-selector/app/requests"
	"github.com/unit-selector/app/responses"
	"github.com/unit-selector/app/services"
	"github.com/unit-selector/helpers/utils"
)

// AdminController exposes the operational endpoints.
type AdminController struct {
	selector *services.SelectorService
	profiles *services.ProfileService
	kv       services.KVStore
	logger   *zap.Logger
}

// NewAdminController wires the admin endpoints.
func NewAdminController(selector *services.SelectorService, profiles *services.ProfileService, kv services.KVStore, logger *zap.Logger) *AdminController {
	return &AdminController{
		selector: selector,
		profiles: profiles,
		kv:       kv,
		logger:   logger,
	}
}

// RefreshProfile queues a profile refetch for a site.
func (ac *AdminController) RefreshProfile(c *gin.Context) {
	var req requests.SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	site := models.SiteRef{Code: req.SiteCode, Name: req.SiteName}
	ac.profiles.Refresh(site)

	key := utils.SiteKey(site.Code, site.Name)
	ac.logger.Info("profile refresh requested", zap.String("site_key", key))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "profile refresh queued for " + key,
	})
}

// InvalidateProfiles drops every cached profile and derived layout.
func (ac *AdminController) InvalidateProfiles(c *gin.Context) {
	ac.profiles.InvalidateAll()

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "profile cache invalidated",
	})
}

// GetStats aggregates engine, profile, and KV statistics.
func (ac *AdminController) GetStats(c *gin.Context) {
	kvStats, err := ac.kv.GetStats(c.Request.Context())
	if err != nil {
		ac.logger.Warn("kv stats unavailable", zap.Error(err))
		kvStats = map[string]interface{}{"error": err.Error()}
	}

	c.JSON(http.StatusOK, responses.StatsResponse{
		Selector: ac.selector.GetStats(),
		Profiles: ac.profiles.Stats(),
		KV:       kvStats,
	})
}

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/unit-selector/app/models"
)

// HTTPSource fetches site profiles from the management portal. Portal
// payloads are decoded tolerantly: numbers may arrive as strings,
// fields may be missing, and junk entries are skipped rather than
// failing the whole profile.
type HTTPSource struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPSource builds a portal client against baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPSource{
		client: client,
		logger: logger,
	}
}

// Fetch requests the profile for site from the portal.
func (h *HTTPSource) Fetch(ctx context.Context, site models.SiteRef) (models.SiteProfile, error) {
	var payload map[string]interface{}

	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("site_code", site.Code).
		SetQueryParam("site_name", site.Name).
		SetResult(&payload).
		Get("/api/site-profile")

	if err != nil {
		return models.SiteProfile{}, fmt.Errorf("portal request failed: %w", err)
	}
	if resp.IsError() {
		return models.SiteProfile{}, fmt.Errorf("portal returned status %d", resp.StatusCode())
	}

	if ok, isBool := payload["ok"].(bool); isBool && !ok {
		return models.SiteProfile{}, ErrNoProfile
	}

	rawProfile, ok := payload["profile"].(map[string]interface{})
	if !ok {
		return models.SiteProfile{}, ErrNoProfile
	}

	p := decodeProfile(rawProfile)
	h.logger.Debug("fetched site profile",
		zap.String("site_code", site.Code),
		zap.String("site_name", site.Name),
		zap.Int("building_count", p.BuildingCount),
		zap.Int("override_count", len(p.BuildingOverrides)))

	return p, nil
}

// decodeProfile maps a loosely typed portal payload onto a profile,
// falling back to field defaults for anything missing or unusable.
func decodeProfile(m map[string]interface{}) models.SiteProfile {
	p := models.DefaultProfile()

	if v, ok := asInt(m["building_start"]); ok {
		p.BuildingStart = v
	}
	if v, ok := asInt(m["building_count"]); ok {
		p.BuildingCount = v
	}
	if v, ok := asInt(m["default_line_count"]); ok {
		p.DefaultLineCount = v
	}
	if v, ok := asInt(m["default_max_floor"]); ok {
		p.DefaultMaxFloor = v
	}
	if v, ok := asInt(m["default_basement_floors"]); ok {
		p.DefaultBasementFloors = v
	}

	if raw, ok := m["building_overrides"].(map[string]interface{}); ok {
		overrides := make(map[string]models.BuildingOverride, len(raw))
		for id, entry := range raw {
			entryMap, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			overrides[id] = decodeOverride(entryMap)
		}
		if len(overrides) > 0 {
			p.BuildingOverrides = overrides
		}
	}

	return p.Sanitize()
}

func decodeOverride(m map[string]interface{}) models.BuildingOverride {
	var o models.BuildingOverride

	if v, ok := asInt(m["line_count"]); ok {
		o.LineCount = models.IntPtr(v)
	}
	if v, ok := asInt(m["max_floor"]); ok {
		o.MaxFloor = models.IntPtr(v)
	}
	if v, ok := asInt(m["basement_floors"]); ok {
		o.BasementFloors = models.IntPtr(v)
	}

	if raw, ok := m["line_max_floors"].(map[string]interface{}); ok {
		floors := make(map[string]int, len(raw))
		for line, fv := range raw {
			if v, ok := asInt(fv); ok {
				floors[line] = v
			}
		}
		if len(floors) > 0 {
			o.LineMaxFloors = floors
		}
	}

	return o
}

// asInt coerces the number shapes portal payloads actually contain.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

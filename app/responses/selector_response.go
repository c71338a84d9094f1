package responses

import (
	"github.com/unit-selector/internal/search"
)

// ErrorResponse is the error envelope for every endpoint.
type ErrorResponse struct {
	Error   string      `json:"error"`             // Stable error code
	Message string      `json:"message"`           // Human readable message
	Details interface{} `json:"details,omitempty"` // Optional context
}

// SuccessResponse acknowledges a side-effecting call with no payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SuggestResponse is the ranked-search payload.
type SuggestResponse struct {
	Query       string              `json:"query"`
	ViewMode    string              `json:"view_mode"`             // structure | search | grid
	Results     []string            `json:"results"`               // Canonical addresses, best first
	Suggestions []search.Suggestion `json:"suggestions,omitempty"` // Near misses when results is empty
	Total       int                 `json:"total"`
}

// SiteResponse reports the outcome of a site switch.
type SiteResponse struct {
	SiteKey   string   `json:"site_key"`
	Buildings []string `json:"buildings"`
}

// BuildingsResponse lists a site's building ids.
type BuildingsResponse struct {
	Site      string   `json:"site"`
	Buildings []string `json:"buildings"`
}

// CandidatesResponse enumerates one building's units.
type CandidatesResponse struct {
	Building   string   `json:"building"`
	Candidates []string `json:"candidates"`
	Total      int      `json:"total"`
}

// HistoryResponse carries both history lists for a site.
type HistoryResponse struct {
	Site      string   `json:"site"`
	Favorites []string `json:"favorites"`
	Recents   []string `json:"recents"`
}

// FavoriteToggleResponse reports the new favorite state.
type FavoriteToggleResponse struct {
	Address  string `json:"address"`
	Favorite bool   `json:"favorite"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatsResponse aggregates the admin statistics surfaces.
type StatsResponse struct {
	Selector map[string]interface{} `json:"selector"`
	Profiles map[string]interface{} `json:"profiles"`
	KV       map[string]interface{} `json:"kv"`
}

package requests

// NormalizeRequest parses raw unit text without touching selector state.
type NormalizeRequest struct {
	Text     string `json:"text" binding:"required"` // Raw unit text
	Building string `json:"building,omitempty"`      // Optional building context for bare units
}

// SelectRequest commits a selector value for the active site.
type SelectRequest struct {
	Address string `json:"address" binding:"required"` // Raw or canonical unit text
	Initial bool   `json:"initial,omitempty"`          // Seed from storage, skip history
}

// SiteRequest switches the active site. Both fields empty selects the
// default site.
type SiteRequest struct {
	SiteCode string `json:"site_code,omitempty"`
	SiteName string `json:"site_name,omitempty"`
}

// FavoriteToggleRequest flips the favorite state of one address.
type FavoriteToggleRequest struct {
	Address  string `json:"address" binding:"required"`
	SiteCode string `json:"site_code,omitempty"`
	SiteName string `json:"site_name,omitempty"`
}

// SuggestQuery carries the ranked-search parameters.
type SuggestQuery struct {
	Q        string `form:"q"`         // Query text; empty lists favorites, recents, then candidates
	SiteCode string `form:"site_code"`
	SiteName string `form:"site_name"`
	Building string `form:"building"` // Explicit building context
	Width    int    `form:"width"`    // Viewport width for view-mode selection
}

// SiteQuery identifies a site on read-only endpoints.
type SiteQuery struct {
	SiteCode string `form:"site_code"`
	SiteName string `form:"site_name"`
}

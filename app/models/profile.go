package models

import "strconv"

// Domain ranges for profile geometry. Values outside a range are clamped
// where the field is consumed; non-numeric source data falls back to the
// field default at the decoding boundary instead.
const (
	MinLineCount      = 1
	MaxLineCount      = 6
	MinFloor          = 1
	MaxFloor          = 60
	MinBasementFloors = 0
	MaxBasementFloors = 20

	MinBuildingStart = 1
	MaxBuildingStart = 9999
	MinBuildingCount = 1
	MaxBuildingCount = 500
)

// Built-in fallback geometry served when no profile is available.
const (
	DefaultBuildingStart   = 101
	DefaultBuildingCount   = 20
	DefaultLineCount       = 6
	DefaultMaxFloor        = 60
	DefaultBasementFloors  = 0
)

// SiteRef identifies one apartment site as the portal addresses it.
type SiteRef struct {
	Code string `json:"site_code"` // Stable site code when the portal assigned one
	Name string `json:"site_name"` // Display name, used as the key fallback
}

// SiteProfile describes a site's building numbering and floor/line
// geometry. Immutable within one cache epoch.
type SiteProfile struct {
	BuildingStart         int                         `json:"building_start"`          // First building id in the base sequence
	BuildingCount         int                         `json:"building_count"`          // Length of the base sequence
	DefaultLineCount      int                         `json:"default_line_count"`      // Lines per building unless overridden
	DefaultMaxFloor       int                         `json:"default_max_floor"`       // Top floor unless overridden
	DefaultBasementFloors int                         `json:"default_basement_floors"` // Basement levels unless overridden
	BuildingOverrides     map[string]BuildingOverride `json:"building_overrides,omitempty"`
}

// BuildingOverride is a sparse per-building exception to the site
// defaults. Nil fields mean "inherit".
type BuildingOverride struct {
	LineCount      *int           `json:"line_count,omitempty"`
	MaxFloor       *int           `json:"max_floor,omitempty"`
	BasementFloors *int           `json:"basement_floors,omitempty"`
	LineMaxFloors  map[string]int `json:"line_max_floors,omitempty"` // keyed by two-digit line label
}

// BuildingConfig is the effective geometry of one building after override
// precedence (per-line > per-building > site default) has been applied.
type BuildingConfig struct {
	Building       string         `json:"building"`
	Lines          []string       `json:"lines"` // ordered two-digit labels "01".."0N"
	MaxFloorByLine map[string]int `json:"max_floor_by_line"`
	MaxFloorAll    int            `json:"max_floor_all"`
	BasementFloors int            `json:"basement_floors"`
}

// DefaultProfile returns the built-in fallback: buildings 101..120, six
// lines, sixty floors, no basements, no overrides.
func DefaultProfile() SiteProfile {
	return SiteProfile{
		BuildingStart:         DefaultBuildingStart,
		BuildingCount:         DefaultBuildingCount,
		DefaultLineCount:      DefaultLineCount,
		DefaultMaxFloor:       DefaultMaxFloor,
		DefaultBasementFloors: DefaultBasementFloors,
	}
}

// ClampInt pins v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sanitize pins the building sequence bounds into their domain range.
// Geometry fields are left as-is; the resolver clamps them at use so the
// same profile always resolves to the same configuration.
func (p SiteProfile) Sanitize() SiteProfile {
	p.BuildingStart = ClampInt(p.BuildingStart, MinBuildingStart, MaxBuildingStart)
	p.BuildingCount = ClampInt(p.BuildingCount, MinBuildingCount, MaxBuildingCount)
	return p
}

// BuildingIDs returns the base building id sequence as decimal strings,
// ascending.
func (p SiteProfile) BuildingIDs() []string {
	p = p.Sanitize()
	ids := make([]string, 0, p.BuildingCount)
	for i := 0; i < p.BuildingCount; i++ {
		ids = append(ids, strconv.Itoa(p.BuildingStart+i))
	}
	return ids
}

// Override returns the override for a building, zero-valued when absent.
func (p SiteProfile) Override(buildingID string) BuildingOverride {
	return p.BuildingOverrides[buildingID]
}

// IntPtr is a literal helper for building override fixtures.
func IntPtr(v int) *int { return &v }

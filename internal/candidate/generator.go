package candidate

import (
	"sort"
	"strconv"

	"github.com/unit-selector/app/models"
)

// DefaultLimit bounds one enumeration pass over a site.
const DefaultLimit = 12000

// ResolveFunc supplies the effective geometry for one building. The
// caller decides whether resolution is memoized.
type ResolveFunc func(buildingID string) models.BuildingConfig

// Generate enumerates the valid canonical addresses for the given
// buildings: buildings ascending numerically, then floor ascending from
// 1, then line ascending by label. A (floor, line) pair is emitted only
// when the floor does not exceed that line's cap. Enumeration stops once
// limit addresses have been emitted; the cut always drops the
// numerically highest remainder, so output is reproducible for a given
// profile.
func Generate(buildings []string, limit int, resolve ResolveFunc) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ordered := make([]string, len(buildings))
	copy(ordered, buildings)
	sort.Slice(ordered, func(i, j int) bool {
		a, errA := strconv.Atoi(ordered[i])
		b, errB := strconv.Atoi(ordered[j])
		if errA != nil || errB != nil {
			return ordered[i] < ordered[j]
		}
		return a < b
	})

	var out []string
	for _, building := range ordered {
		cfg := resolve(building)
		for floor := 1; floor <= cfg.MaxFloorAll; floor++ {
			for _, line := range cfg.Lines {
				if floor > cfg.MaxFloorByLine[line] {
					continue
				}
				out = append(out, models.Canonical(building, models.FormatUnit(floor, line)))
				if len(out) >= limit {
					return out
				}
			}
		}
	}
	return out
}

// GenerateForBuilding enumerates one building's space, uncapped beyond
// its own geometry.
func GenerateForBuilding(cfg models.BuildingConfig) []string {
	out := make([]string, 0, cfg.MaxFloorAll*len(cfg.Lines))
	for floor := 1; floor <= cfg.MaxFloorAll; floor++ {
		for _, line := range cfg.Lines {
			if floor > cfg.MaxFloorByLine[line] {
				continue
			}
			out = append(out, models.Canonical(cfg.Building, models.FormatUnit(floor, line)))
		}
	}
	return out
}

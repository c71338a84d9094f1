package layout

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/unit-selector/app/models"
)

// memoSize bounds the building-config memo across epochs.
const memoSize = 512

// Resolver derives effective building geometry from a site profile,
// applying override precedence: per-line > per-building > site default.
// Results are memoized per (profile epoch, building id); Invalidate
// drops the memo when a new profile is installed.
type Resolver struct {
	memo *lru.Cache[string, models.BuildingConfig]
}

// NewResolver builds a resolver with an empty memo.
func NewResolver() (*Resolver, error) {
	memo, err := lru.New[string, models.BuildingConfig](memoSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{memo: memo}, nil
}

// Resolve returns the effective line list and per-line floor caps for
// one building. Absent or out-of-range profile data degrades to the
// clamped defaults; no input makes this fail.
func (r *Resolver) Resolve(profile models.SiteProfile, epoch int64, buildingID string) models.BuildingConfig {
	key := strconv.FormatInt(epoch, 10) + ":" + buildingID
	if cfg, ok := r.memo.Get(key); ok {
		return cfg
	}
	cfg := Derive(profile, buildingID)
	r.memo.Add(key, cfg)
	return cfg
}

// Invalidate clears every memoized configuration.
func (r *Resolver) Invalidate() {
	r.memo.Purge()
}

// MemoLen reports how many configurations are currently memoized.
func (r *Resolver) MemoLen() int {
	return r.memo.Len()
}

// Derive computes a building configuration without memoization. Pure:
// the same profile and building always produce the same result.
func Derive(p models.SiteProfile, buildingID string) models.BuildingConfig {
	ov := p.Override(buildingID)

	lineCount := p.DefaultLineCount
	if ov.LineCount != nil {
		lineCount = *ov.LineCount
	}
	lineCount = models.ClampInt(lineCount, models.MinLineCount, models.MaxLineCount)

	buildingFloor := p.DefaultMaxFloor
	if ov.MaxFloor != nil {
		buildingFloor = *ov.MaxFloor
	}

	basements := p.DefaultBasementFloors
	if ov.BasementFloors != nil {
		basements = *ov.BasementFloors
	}

	cfg := models.BuildingConfig{
		Building:       buildingID,
		Lines:          make([]string, 0, lineCount),
		MaxFloorByLine: make(map[string]int, lineCount),
		BasementFloors: models.ClampInt(basements, models.MinBasementFloors, models.MaxBasementFloors),
	}

	maxAll := 0
	for i := 1; i <= lineCount; i++ {
		label := LineLabel(i)
		floor := buildingFloor
		if v, ok := ov.LineMaxFloors[label]; ok {
			floor = v
		}
		floor = models.ClampInt(floor, models.MinFloor, models.MaxFloor)
		cfg.Lines = append(cfg.Lines, label)
		cfg.MaxFloorByLine[label] = floor
		if floor > maxAll {
			maxAll = floor
		}
	}
	if maxAll == 0 {
		maxAll = 1
	}
	cfg.MaxFloorAll = maxAll
	return cfg
}

// LineLabel formats a 1-based line index as its zero-padded two-digit
// label.
func LineLabel(i int) string {
	return fmt.Sprintf("%02d", i)
}

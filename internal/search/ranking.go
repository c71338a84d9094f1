package search

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/unit-selector/app/models"
	"github.com/unit-selector/internal/normalizer"
)

// ResultLimit caps one search result page.
const ResultLimit = 60

// Match scores, highest first. The values are tuned breakpoints the
// portal UI depends on for which suggestion surfaces first; their
// relative order is the contract.
const (
	scoreExact           = 1000
	scoreUnitAndBuilding = 900
	scoreUnitSuffix      = 700
	scoreBuildingPrefix  = 450
	scoreUnitSubstring   = 350
	scoreRawSubstring    = 250
	scoreFallbackPrefix  = 100
)

// Engine ranks candidate addresses against free-form query text.
type Engine struct {
	normalizer *normalizer.UnitNormalizer
	logger     *zap.Logger
}

// NewEngine wires the ranking engine.
func NewEngine(n *normalizer.UnitNormalizer, logger *zap.Logger) *Engine {
	return &Engine{normalizer: n, logger: logger}
}

// Search scores every pool entry against the query and returns at most
// ResultLimit matches ordered by score descending, then candidate string
// ascending. Entries scoring zero are excluded.
//
// An empty query skips scoring entirely: the deduplicated pool order
// (favorites, recents, then the first candidate page) is preserved.
//
// The query is normalized without the fallback building; the fallback
// only upgrades a unit-suffix match to a building+unit match and,
// failing everything else, keeps candidates from the fallback building
// in the running with the lowest score.
func (e *Engine) Search(query string, pool []string, fallbackBuilding string) []string {
	deduped := Dedup(pool)

	if strings.TrimSpace(query) == "" {
		if len(deduped) > ResultLimit {
			deduped = deduped[:ResultLimit]
		}
		return deduped
	}

	q := e.normalizer.Normalize(query, "")
	stripped := normalizer.Compact(query)

	type scoredAddr struct {
		addr  string
		score int
	}
	scored := make([]scoredAddr, 0, len(deduped))
	for _, c := range deduped {
		if s := Score(c, q, stripped, fallbackBuilding); s > 0 {
			scored = append(scored, scoredAddr{addr: c, score: s})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].addr < scored[j].addr
	})
	if len(scored) > ResultLimit {
		scored = scored[:ResultLimit]
	}

	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.addr
	}
	e.logger.Debug("search ranked",
		zap.String("query", query),
		zap.Int("pool", len(deduped)),
		zap.Int("matched", len(out)))
	return out
}

// Score rates one candidate against a normalized query. The table is
// evaluated top-down and the first matching row wins; zero means the
// candidate is excluded.
func Score(c string, q models.ParsedAddress, strippedQuery, fallbackBuilding string) int {
	if q.Normalized != "" && c == q.Normalized {
		return scoreExact
	}

	unitSuffix := q.Unit != "" && strings.HasSuffix(c, "-"+q.Unit)

	prefixBuilding := q.Building
	if prefixBuilding == "" {
		prefixBuilding = fallbackBuilding
	}
	if unitSuffix && prefixBuilding != "" && strings.HasPrefix(c, prefixBuilding+"-") {
		return scoreUnitAndBuilding
	}
	if unitSuffix {
		return scoreUnitSuffix
	}
	if q.Building != "" && strings.HasPrefix(c, q.Building+"-") {
		return scoreBuildingPrefix
	}
	if q.Unit != "" && strings.Contains(c, q.Unit) {
		return scoreUnitSubstring
	}
	if strippedQuery != "" && strings.Contains(c, strippedQuery) {
		return scoreRawSubstring
	}
	if fallbackBuilding != "" && strings.HasPrefix(c, fallbackBuilding+"-") {
		return scoreFallbackPrefix
	}
	return 0
}

// Dedup removes duplicates preserving first occurrence.
func Dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

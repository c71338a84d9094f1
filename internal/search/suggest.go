package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Nearest-miss defaults: at most SuggestLimit entries, nothing below
// DefaultSimilarityFloor.
const (
	SuggestLimit           = 5
	DefaultSimilarityFloor = 0.6
	jwBoostThreshold       = 0.7
	jwPrefixSize           = 4
)

// Suggestion pairs a candidate address with its similarity to the query.
type Suggestion struct {
	Address string  `json:"address"`
	Score   float64 `json:"score"`
}

// Nearest returns the pool entries closest to the input, for queries the
// score table matched nothing against. Entries below floor are dropped;
// a non-positive floor selects the default. Deterministic: equal scores
// break on the address string.
func Nearest(input string, pool []string, limit int, floor float64) []Suggestion {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || len(pool) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = SuggestLimit
	}
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}

	scored := make([]Suggestion, 0, limit)
	for _, c := range Dedup(pool) {
		s := Similarity(input, strings.ToLower(c))
		if s < floor {
			continue
		}
		scored = append(scored, Suggestion{Address: c, Score: s})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Address < scored[j].Address
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Similarity blends Jaro-Winkler with length-normalized Levenshtein
// distance and keeps the better of the two, in [0,1].
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	jw := smetrics.JaroWinkler(a, b, jwBoostThreshold, jwPrefixSize)

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	var lev float64
	if maxLen > 0 {
		lev = 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	}

	if jw > lev {
		return jw
	}
	return lev
}

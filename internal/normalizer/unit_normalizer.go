package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/unit-selector/app/models"
)

// UnitNormalizer parses free-form unit address text ("101-1203",
// "102동 904호", "1203") into the canonical "{building}-{unit}" form.
// Patterns are tried in a fixed priority order; the first match wins.
type UnitNormalizer struct {
	reSeparated *regexp.Regexp // 101-1203
	reMarked    *regexp.Regexp // 102동904호, 102동904
	reJoined    *regexp.Regexp // 101203, 1011203
	reBareUnit  *regexp.Regexp // 1203, 904호
}

// NewUnitNormalizer compiles the pattern set.
func NewUnitNormalizer() *UnitNormalizer {
	return &UnitNormalizer{
		reSeparated: regexp.MustCompile(`^(\d{2,4})-(\d{3,4})$`),
		reMarked:    regexp.MustCompile(`^(\d{2,4})동(\d{3,4})호?$`),
		reJoined:    regexp.MustCompile(`^(\d{2,4})(\d{3,4})$`),
		reBareUnit:  regexp.MustCompile(`^(\d{3,4})호?$`),
	}
}

// Normalize parses text into a structured address. fallbackBuilding
// supplies the building for bare unit numbers and may be empty. Never
// fails: unparseable input comes back with Complete=false and the
// trimmed text as Normalized, usable for substring search but not for
// storage.
func (n *UnitNormalizer) Normalize(text, fallbackBuilding string) models.ParsedAddress {
	trimmed := strings.TrimSpace(text)
	res := models.ParsedAddress{Raw: text, Normalized: trimmed}

	compact := Compact(trimmed)

	if m := n.reSeparated.FindStringSubmatch(compact); m != nil {
		return withParts(res, m[1], m[2])
	}
	if m := n.reMarked.FindStringSubmatch(compact); m != nil {
		return withParts(res, m[1], m[2])
	}
	if m := n.reJoined.FindStringSubmatch(compact); m != nil {
		return withParts(res, m[1], m[2])
	}
	if m := n.reBareUnit.FindStringSubmatch(compact); m != nil {
		if fallbackBuilding != "" {
			return withParts(res, fallbackBuilding, m[1])
		}
		res.Unit = m[1]
		res.Normalized = m[1]
		return res
	}
	return res
}

// Compact folds full-width characters to their ascii forms and strips
// every whitespace rune, so "１０２동 ９０４호" matches like "102동904호".
func Compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, width.Fold.String(s))
}

func withParts(res models.ParsedAddress, building, unit string) models.ParsedAddress {
	res.Building = building
	res.Unit = unit
	res.Normalized = models.Canonical(building, unit)
	res.Complete = true
	return res
}

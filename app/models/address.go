package models

import (
	"strconv"
	"strings"
)

// ParsedAddress is the outcome of normalizing free-form unit address
// text. Complete is true only when both building and unit were resolved,
// either from the input itself or through the fallback building context.
type ParsedAddress struct {
	Raw        string `json:"raw"`        // Input as received
	Building   string `json:"building"`   // Building id, e.g. "101"
	Unit       string `json:"unit"`       // Floor+line suffix, e.g. "1203"
	Normalized string `json:"normalized"` // Canonical form when complete, best-effort text otherwise
	Complete   bool   `json:"complete"`
}

// Canonical joins building and unit into the one storage/wire format:
// "{building}-{unit}".
func Canonical(building, unit string) string {
	return building + "-" + unit
}

// FormatUnit encodes floor and line into the unit suffix. The floor is
// not zero-padded; the line label already carries its two digits, so
// floor 12 on line "03" becomes "1203".
func FormatUnit(floor int, line string) string {
	return strconv.Itoa(floor) + line
}

// SplitCanonical breaks a canonical address back into building and unit.
// Reports false for anything that is not a single "{building}-{unit}".
func SplitCanonical(addr string) (building, unit string, ok bool) {
	building, unit, ok = strings.Cut(addr, "-")
	if !ok || building == "" || unit == "" || strings.Contains(unit, "-") {
		return "", "", false
	}
	return building, unit, true
}

package utils

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// SiteKeyDefault is the sentinel key used when neither a site code nor a
// site name is available.
const SiteKeyDefault = "default"

// Slug turns free-form text into a lowercase ascii key segment: Korean
// and other non-ascii input is transliterated, anything that is not a
// letter or digit collapses to a single dash.
func Slug(s string) string {
	s = strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SiteKey derives the scoping key for history and profile caches: site
// code, else site name, else the global sentinel.
func SiteKey(code, name string) string {
	if k := Slug(code); k != "" {
		return k
	}
	if k := Slug(name); k != "" {
		return k
	}
	return SiteKeyDefault
}

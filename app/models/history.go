package models

// History bounds. Favorites and recents are kept per site, newest first,
// duplicates collapsed by pushing the duplicate to the front.
const (
	FavoriteLimit = 12
	RecentLimit   = 8
)

// HistorySnapshot is one persisted history namespace: site key to its
// ordered canonical-address list. The whole object is stored under a
// single persistence key so different sites never mix entries.
type HistorySnapshot map[string][]string

// Clone deep-copies the snapshot so callers can mutate freely.
func (s HistorySnapshot) Clone() HistorySnapshot {
	out := make(HistorySnapshot, len(s))
	for key, list := range s {
		cp := make([]string, len(list))
		copy(cp, list)
		out[key] = cp
	}
	return out
}

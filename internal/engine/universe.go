package engine

import "github.com/trogers1052/fox-valley-engine/internal/models"

// CombinedUniverse unions the screens of one snapshot date, keeping the
// first occurrence of each ticker in group priority order
// (GROWTH_1, GROWTH_2, DEFENSIVE_DIVIDEND) and row order within a group
func CombinedUniverse(screens map[models.ScreenGroup][]models.ScreenEntry) []models.ScreenEntry {
	seen := make(map[string]bool)
	universe := make([]models.ScreenEntry, 0)
	for _, group := range models.ScreenGroups {
		for _, e := range screens[group] {
			if seen[e.Ticker] {
				continue
			}
			seen[e.Ticker] = true
			universe = append(universe, e)
		}
	}
	return universe
}

// CountRank returns how many entries carry rank r
func CountRank(entries []models.ScreenEntry, r int) int {
	n := 0
	for _, e := range entries {
		if e.HasRank(r) {
			n++
		}
	}
	return n
}

// Rank1Set returns every ticker ranked 1 in any group of one snapshot
func Rank1Set(screens map[models.ScreenGroup][]models.ScreenEntry) TickerSet {
	set := make(TickerSet)
	for _, entries := range screens {
		for _, e := range entries {
			if e.HasRank(1) {
				set[e.Ticker] = struct{}{}
			}
		}
	}
	return set
}

package engine

import (
	"fmt"

	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// Diff classifies rank changes between two snapshots of the same screen group
//
// Tickers only in current are NEW_ENTRANT, only in previous REMOVED; tickers
// in both compare ranks, a numerically smaller rank being stronger. Entries
// without a rank take no part. When either side has no ranked entries the
// comparison is skipped and the result is empty
//
// Mixing screen groups is a caller bug and panics
func Diff(previous, current []models.ScreenEntry) []models.DeltaRecord {
	deltas := make([]models.DeltaRecord, 0)

	group := checkGroup("", previous)
	checkGroup(group, current)

	prevRanks, prevOrder := rankMap(previous)
	curRanks, curOrder := rankMap(current)
	if len(prevRanks) == 0 || len(curRanks) == 0 {
		return deltas
	}
	if group == "" {
		group = current[0].ScreenGroup
	}

	for _, ticker := range curOrder {
		cur := curRanks[ticker]
		d := models.DeltaRecord{
			Ticker:      ticker,
			ScreenGroup: group,
			CurrentRank: models.IntPtr(cur),
		}
		prev, ok := prevRanks[ticker]
		switch {
		case !ok:
			d.ChangeKind = models.ChangeNewEntrant
		case prev > cur:
			d.ChangeKind = models.ChangeUpgraded
		case prev < cur:
			d.ChangeKind = models.ChangeDowngraded
		default:
			d.ChangeKind = models.ChangeUnchanged
		}
		if ok {
			d.PreviousRank = models.IntPtr(prev)
		}
		deltas = append(deltas, d)
	}

	for _, ticker := range prevOrder {
		if _, ok := curRanks[ticker]; ok {
			continue
		}
		deltas = append(deltas, models.DeltaRecord{
			Ticker:       ticker,
			ScreenGroup:  group,
			PreviousRank: models.IntPtr(prevRanks[ticker]),
			ChangeKind:   models.ChangeRemoved,
		})
	}

	return deltas
}

// DiffAll runs Diff per screen group in priority order
func DiffAll(previous, current map[models.ScreenGroup][]models.ScreenEntry) []models.DeltaRecord {
	deltas := make([]models.DeltaRecord, 0)
	for _, group := range models.ScreenGroups {
		deltas = append(deltas, Diff(previous[group], current[group])...)
	}
	return deltas
}

// Changes drops UNCHANGED records, leaving the user-facing delta list
func Changes(deltas []models.DeltaRecord) []models.DeltaRecord {
	out := make([]models.DeltaRecord, 0, len(deltas))
	for _, d := range deltas {
		if d.ChangeKind != models.ChangeUnchanged {
			out = append(out, d)
		}
	}
	return out
}

func checkGroup(group models.ScreenGroup, entries []models.ScreenEntry) models.ScreenGroup {
	for _, e := range entries {
		if group == "" {
			group = e.ScreenGroup
			continue
		}
		if e.ScreenGroup != group {
			panic(fmt.Sprintf("engine: diff across screen groups %s and %s", group, e.ScreenGroup))
		}
	}
	return group
}

// rankMap indexes ranked entries by ticker, first occurrence winning
func rankMap(entries []models.ScreenEntry) (map[string]int, []string) {
	ranks := make(map[string]int, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Rank == nil {
			continue
		}
		if _, dup := ranks[e.Ticker]; dup {
			continue
		}
		ranks[e.Ticker] = *e.Rank
		order = append(order, e.Ticker)
	}
	return ranks, order
}

package engine

import "github.com/trogers1052/fox-valley-engine/internal/models"

// TickerSet is a set of normalized tickers
type TickerSet map[string]struct{}

// Has reports membership
func (s TickerSet) Has(ticker string) bool {
	_, ok := s[ticker]
	return ok
}

// HeldSet returns the tickers of positions
func HeldSet(positions []models.Position) TickerSet {
	set := make(TickerSet, len(positions))
	for _, p := range positions {
		set[p.Ticker] = struct{}{}
	}
	return set
}

// CrossMatch tags every screen entry as held or candidate. The screen drives
// the join: every entry yields exactly one row, holdings absent from the
// screen yield none
func (r Rules) CrossMatch(entries []models.ScreenEntry, held TickerSet) []models.CrossMatchRow {
	rows := make([]models.CrossMatchRow, 0, len(entries))
	for _, e := range entries {
		status := models.MatchCandidate
		if held.Has(e.Ticker) {
			status = models.MatchHeld
		}
		stop := r.StopDefault
		if e.ScreenGroup.IsGrowth() {
			stop = r.StopRank1
		}
		rows = append(rows, models.CrossMatchRow{
			ScreenEntry:      e,
			Status:           status,
			SuggestedStopPct: stop,
		})
	}
	return rows
}

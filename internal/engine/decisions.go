package engine

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

type deltaKey struct {
	group  models.ScreenGroup
	ticker string
}

// Decide scores every universe entry against the current positions.
// Rows come back sorted by score descending, ties broken by ticker
func (r Rules) Decide(universe []models.ScreenEntry, positions []models.Position, deltas []models.DeltaRecord, alloc Allocation) []models.DecisionRow {
	scorer := NewScorer(r)

	byTicker := make(map[string]models.Position, len(positions))
	for _, p := range positions {
		byTicker[p.Ticker] = p
	}
	changes := make(map[deltaKey]models.ChangeKind, len(deltas))
	for _, d := range deltas {
		changes[deltaKey{d.ScreenGroup, d.Ticker}] = d.ChangeKind
	}

	rows := make([]models.DecisionRow, 0, len(universe))
	for _, e := range universe {
		pos, held := byTicker[e.Ticker]
		row := models.DecisionRow{
			Ticker:                 e.Ticker,
			Rank:                   e.Rank,
			ScreenGroup:            e.ScreenGroup,
			Held:                   held,
			SuggestedAllocationPct: decimal.Zero,
			Change:                 changes[deltaKey{e.ScreenGroup, e.Ticker}],
		}
		if held {
			row.GainLossPct = pos.GainLossPct
			row.MarketValue = pos.MarketValue
		}

		res := scorer.Score(ScoreInput{Rank: e.Rank, Held: held, GainLossPct: row.GainLossPct})
		row.Score = res.Score
		row.Action = res.Action
		row.SuggestedStopPct = res.SuggestedStopPct

		row.SuggestedAllocationPct = alloc.PctFor(e.Rank)
		if row.SuggestedAllocationPct.IsPositive() {
			row.EstimatedBuyAmount = alloc.AmountFor(row.SuggestedAllocationPct)
		}
		if held {
			row.StopSignal = r.StopSignal(row.GainLossPct, row.Action)
		}
		rows = append(rows, row)
	}

	SortDecisions(rows)
	return rows
}

// SortDecisions orders rows by score descending, then ticker ascending
func SortDecisions(rows []models.DecisionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Ticker < rows[j].Ticker
	})
}

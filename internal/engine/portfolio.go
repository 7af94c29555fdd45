package engine

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

// Totals returns the portfolio value and the cash held in sweep tickers.
// A valid cashOverride replaces the detected cash and the total is
// recomputed around it. With no cash rows and a known total, cash is zero
func (r Rules) Totals(positions []models.Position, cashOverride decimal.NullDecimal) (total, cash decimal.NullDecimal) {
	var invested, swept []decimal.NullDecimal
	for _, p := range positions {
		if r.IsCash(p.Ticker) {
			swept = append(swept, p.MarketValue)
			continue
		}
		invested = append(invested, p.MarketValue)
	}

	cash = normalize.Sum(swept...)
	if cashOverride.Valid {
		cash = cashOverride
	}
	total = normalize.Sum(normalize.Sum(invested...), cash)
	if !cash.Valid && total.Valid {
		cash = normalize.Present(decimal.Zero)
	}
	return total, cash
}

// AverageGain is the mean gainLossPct over non-cash positions that have one
func (r Rules) AverageGain(positions []models.Position) decimal.NullDecimal {
	sum := decimal.Zero
	n := 0
	for _, p := range positions {
		if r.IsCash(p.Ticker) || !p.GainLossPct.Valid {
			continue
		}
		sum = sum.Add(p.GainLossPct.Decimal)
		n++
	}
	if n == 0 {
		return normalize.Absent
	}
	return normalize.Present(sum.Div(decimal.NewFromInt(int64(n))))
}

// FullExits returns held tickers whose market value has dropped to zero
func (r Rules) FullExits(positions []models.Position) []string {
	exits := make([]string, 0)
	for _, p := range positions {
		if r.IsCash(p.Ticker) {
			continue
		}
		if p.MarketValue.Valid && p.MarketValue.Decimal.IsZero() {
			exits = append(exits, p.Ticker)
		}
	}
	return exits
}

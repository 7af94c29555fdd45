package engine

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// weightPrecision bounds the digits of the per-position weight. The quotient
// is truncated so the deployed total never rounds above 1 - CashFloor
const weightPrecision = 12

var hundred = decimal.NewFromInt(100)

// Allocation is the equal-weight sizing of rank-1 signals
type Allocation struct {
	Rank1Count        int                 `json:"rank1_count"`
	PerPositionWeight decimal.Decimal     `json:"per_position_weight"`
	DeployableValue   decimal.NullDecimal `json:"deployable_value"`
	TotalValue        decimal.NullDecimal `json:"total_value"`
}

// Allocate splits the deployable fraction (1 - CashFloor) equally among the
// rank-1 tickers of the universe, capped at PositionCap per position.
// Conviction differences among rank-1 names are ignored
func (r Rules) Allocate(universe []models.ScreenEntry, totalValue decimal.NullDecimal) Allocation {
	deployFraction := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(r.CashFloor))
	a := Allocation{
		Rank1Count:        CountRank(universe, 1),
		PerPositionWeight: decimal.Zero,
		TotalValue:        totalValue,
	}
	if totalValue.Valid {
		a.DeployableValue = decimal.NullDecimal{Decimal: totalValue.Decimal.Mul(deployFraction), Valid: true}
	}
	if a.Rank1Count == 0 {
		return a
	}

	equal, _ := deployFraction.QuoRem(decimal.NewFromInt(int64(a.Rank1Count)), weightPrecision)
	a.PerPositionWeight = decimal.Min(decimal.NewFromFloat(r.PositionCap), equal)
	return a
}

// PctFor returns the suggested allocation percent for an entry of rank
func (a Allocation) PctFor(rank *int) decimal.Decimal {
	if rank == nil || *rank != 1 {
		return decimal.Zero
	}
	return a.PerPositionWeight.Mul(hundred)
}

// AmountFor converts an allocation percent into a currency amount
func (a Allocation) AmountFor(pct decimal.Decimal) decimal.NullDecimal {
	if !a.TotalValue.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: a.TotalValue.Decimal.Mul(pct).Div(hundred), Valid: true}
}

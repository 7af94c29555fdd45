package normalize

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// reconcileTolerance is the allowed gap per share between a broker-supplied
// market value and shares x price
var reconcileTolerance = decimal.RequireFromString("0.01")

// PositionResult holds the normalized positions of one portfolio table
type PositionResult struct {
	Positions   []models.Position `json:"positions"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
}

// NormalizePositions maps a broker export onto Position records
//
// Tickers are unique in the result; on duplicates the last row wins but
// keeps the slot of the first. A missing ticker column degrades to UNK<n>
// placeholders with a diagnostic
func NormalizePositions(t Table, m ColumnMatcher) (*PositionResult, error) {
	res := &PositionResult{}
	if t.IsEmpty() {
		return res, &EmptyInputWarning{Table: t.Name}
	}

	cols := m.Resolve(t.Columns)
	_, hasValue := cols[FieldMarketValue]
	if !hasValue {
		for _, f := range []string{FieldShares, FieldMarketPrice} {
			if _, ok := cols[f]; !ok {
				return res, &SchemaError{Table: t.Name, Field: f}
			}
		}
	}
	if len(t.Rows) == 0 {
		return res, &EmptyInputWarning{Table: t.Name}
	}

	idx := func(field string) int {
		if i, ok := cols[field]; ok {
			return i
		}
		return -1
	}
	tickerIdx := idx(FieldTicker)
	if tickerIdx < 0 {
		res.note(t.Name, 0, FieldTicker, "no ticker column, using UNK placeholders")
	}

	slots := make(map[string]int)
	for i, row := range t.Rows {
		rowNum := i + 1

		var ticker string
		if tickerIdx >= 0 {
			ticker = NormalizeTicker(cell(row, tickerIdx))
			if ticker == "" {
				res.note(t.Name, rowNum, FieldTicker, "empty ticker, row skipped")
				continue
			}
		} else {
			ticker = fmt.Sprintf("UNK%d", rowNum)
		}

		num := func(field string) decimal.NullDecimal {
			v, err := ParseNumber(cell(row, idx(field)))
			if err != nil {
				res.note(t.Name, rowNum, field, err.Error())
			}
			return v
		}

		p := models.Position{
			Ticker:      ticker,
			Shares:      num(FieldShares),
			MarketPrice: num(FieldMarketPrice),
			CostBasis:   num(FieldCostBasis),
		}

		if !p.CostBasis.Valid {
			total := num(FieldCostBasisTotal)
			if total.Valid && p.Shares.Valid && p.Shares.Decimal.IsPositive() {
				p.CostBasis = Present(total.Decimal.Div(p.Shares.Decimal))
			}
		}

		broker := num(FieldMarketValue)
		p.MarketValue = MarketValue(p.Shares, p.MarketPrice)
		if p.MarketValue.Valid && broker.Valid {
			tol := reconcileTolerance.Mul(decimal.Max(decimal.NewFromInt(1), p.Shares.Decimal.Abs()))
			if p.MarketValue.Decimal.Sub(broker.Decimal).Abs().GreaterThan(tol) {
				res.note(t.Name, rowNum, FieldMarketValue, fmt.Sprintf(
					"broker value %s does not reconcile with shares x price %s",
					broker.Decimal.StringFixed(2), p.MarketValue.Decimal.StringFixed(2)))
			}
		} else if !p.MarketValue.Valid {
			p.MarketValue = broker
		}

		p.GainLossPct = GainLossPct(p.MarketPrice, p.CostBasis)
		if !p.GainLossPct.Valid {
			p.GainLossPct = num(FieldGainLossPct)
		}

		if slot, dup := slots[ticker]; dup {
			res.note(t.Name, rowNum, FieldTicker, "duplicate ticker "+ticker+", last row wins")
			res.Positions[slot] = p
			continue
		}
		slots[ticker] = len(res.Positions)
		res.Positions = append(res.Positions, p)
	}

	return res, nil
}

func (r *PositionResult) note(table string, row int, field, msg string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Table: table, Row: row, Field: field, Message: msg})
}

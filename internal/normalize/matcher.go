package normalize

import "strings"

// Canonical field names resolved by the column matchers
const (
	FieldTicker         = "ticker"
	FieldRank           = "rank"
	FieldShares         = "shares"
	FieldMarketPrice    = "marketPrice"
	FieldCostBasis      = "costBasis"
	FieldCostBasisTotal = "costBasisTotal"
	FieldMarketValue    = "marketValue"
	FieldGainLossPct    = "gainLossPct"
)

// ColumnRule maps vendor column names onto one canonical field
//
// Exact names are tried first across all columns, then Contains groups.
// A column satisfies a Contains group when its lowercased name contains
// every substring of the group. Columns containing any Exclude substring
// never match. Within a tier the first column in original order wins
type ColumnRule struct {
	Field    string
	Exact    []string
	Contains [][]string
	Exclude  []string
}

func (r ColumnRule) excluded(col string) bool {
	for _, x := range r.Exclude {
		if strings.Contains(col, x) {
			return true
		}
	}
	return false
}

func (r ColumnRule) matchesExact(col string) bool {
	for _, name := range r.Exact {
		if col == name {
			return true
		}
	}
	return false
}

func (r ColumnRule) matchesContains(col string) bool {
	for _, group := range r.Contains {
		ok := len(group) > 0
		for _, sub := range group {
			if !strings.Contains(col, sub) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// ColumnMatcher is an ordered list of rules. Earlier rules claim columns first
type ColumnMatcher []ColumnRule

// Resolve returns the column index for every field that matched
func (m ColumnMatcher) Resolve(columns []string) map[string]int {
	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}

	claimed := make(map[int]bool)
	resolved := make(map[string]int)

	for _, rule := range m {
		idx := -1
		for i, col := range lowered {
			if !claimed[i] && !rule.excluded(col) && rule.matchesExact(col) {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i, col := range lowered {
				if !claimed[i] && !rule.excluded(col) && rule.matchesContains(col) {
					idx = i
					break
				}
			}
		}
		if idx >= 0 {
			claimed[idx] = true
			resolved[rule.Field] = idx
		}
	}
	return resolved
}

var tickerRule = ColumnRule{
	Field:    FieldTicker,
	Contains: [][]string{{"ticker"}, {"symbol"}},
}

// ScreenColumns is the default matcher for screen exports
var ScreenColumns = ColumnMatcher{
	tickerRule,
	{
		Field:    FieldRank,
		Exact:    []string{"zacks rank", "rank"},
		Contains: [][]string{{"rank"}},
	},
}

// PositionColumns is the default matcher for broker position exports
var PositionColumns = ColumnMatcher{
	tickerRule,
	{
		Field:    FieldShares,
		Exact:    []string{"shares", "quantity", "qty"},
		Contains: [][]string{{"shares"}, {"quantity"}},
		Exclude:  []string{"outstanding"},
	},
	{
		Field:    FieldCostBasisTotal,
		Exact:    []string{"cost basis total", "total cost", "total cost basis"},
		Contains: [][]string{{"cost", "total"}},
	},
	{
		Field:    FieldCostBasis,
		Exact:    []string{"cost basis per share", "average cost basis", "average cost", "avg cost", "costbasis", "cost basis"},
		Contains: [][]string{{"cost", "share"}, {"average", "cost"}, {"avg", "cost"}, {"average", "price"}, {"cost basis"}},
		Exclude:  []string{"total"},
	},
	{
		Field:    FieldMarketPrice,
		Exact:    []string{"last price", "market price", "current price", "marketprice", "price"},
		Contains: [][]string{{"price"}},
		Exclude:  []string{"change", "average", "avg", "cost", "target"},
	},
	{
		Field:    FieldMarketValue,
		Exact:    []string{"current value", "market value", "marketvalue", "value"},
		Contains: [][]string{{"value"}},
		Exclude:  []string{"change"},
	},
	{
		Field:    FieldGainLossPct,
		Exact:    []string{"gainloss%", "gain/loss %", "gain/loss%", "total gain/loss percent"},
		Contains: [][]string{{"gain", "percent"}, {"gain", "%"}},
		Exclude:  []string{"today"},
	},
}

package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberCleaner = strings.NewReplacer("$", "", ",", "", "%", "", " ", "")
	hundred       = decimal.NewFromInt(100)
)

// Absent is the value used for cells that are missing or unreadable
var Absent = decimal.NullDecimal{}

// Present wraps d as a valid NullDecimal
func Present(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ParseNumber reads a currency or percentage cell. Dollar signs, commas
// and percent signs are stripped. A value wrapped in one pair of
// parentheses is negative; any other parenthesis is malformed. Empty cells
// and placeholders are absent without error, other leftovers are absent
// with a *ParseError
func ParseNumber(raw string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Absent, nil
	}
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if negative {
		s = s[1 : len(s)-1]
	}
	if strings.ContainsAny(s, "()") {
		return Absent, &ParseError{Value: raw}
	}
	s = numberCleaner.Replace(s)

	switch strings.ToLower(s) {
	case "", "-", "--", "n/a", "na", "nan":
		return Absent, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil || (negative && strings.HasPrefix(s, "-")) {
		return Absent, &ParseError{Value: raw}
	}
	if negative {
		d = d.Neg()
	}
	return Present(d), nil
}

// Sum adds the present values. Absent values count as zero, but when every
// value is absent the result is absent
func Sum(values ...decimal.NullDecimal) decimal.NullDecimal {
	total := decimal.Zero
	seen := false
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
			seen = true
		}
	}
	if !seen {
		return Absent
	}
	return Present(total)
}

// MarketValue returns shares x price when both are present
func MarketValue(shares, price decimal.NullDecimal) decimal.NullDecimal {
	if !shares.Valid || !price.Valid {
		return Absent
	}
	return Present(shares.Decimal.Mul(price.Decimal))
}

// GainLossPct returns (price/cost - 1) x 100 when cost is positive
func GainLossPct(price, cost decimal.NullDecimal) decimal.NullDecimal {
	if !price.Valid || !cost.Valid || !cost.Decimal.IsPositive() {
		return Absent
	}
	return Present(price.Decimal.Div(cost.Decimal).Sub(decimal.NewFromInt(1)).Mul(hundred))
}

// Percent returns part / whole x 100 when both are present and whole is positive
func Percent(part, whole decimal.NullDecimal) decimal.NullDecimal {
	if !part.Valid || !whole.Valid || !whole.Decimal.IsPositive() {
		return Absent
	}
	return Present(part.Decimal.Div(whole.Decimal).Mul(hundred))
}

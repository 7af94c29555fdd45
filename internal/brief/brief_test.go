package brief

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/fox-valley-engine/internal/engine"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

func val(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func scenario() ([]models.DecisionRow, []models.DeltaRecord) {
	rules := engine.DefaultRules()
	universe := []models.ScreenEntry{
		{Ticker: "AAA", Rank: models.IntPtr(1), ScreenGroup: models.ScreenGrowth1},
		{Ticker: "CCC", Rank: models.IntPtr(1), ScreenGroup: models.ScreenGrowth1},
		{Ticker: "EEE", Rank: models.IntPtr(1), ScreenGroup: models.ScreenGrowth2},
		{Ticker: "KO", Rank: models.IntPtr(2), ScreenGroup: models.ScreenDefensiveDividend},
	}
	positions := []models.Position{{Ticker: "KO", GainLossPct: val("4")}}
	deltas := []models.DeltaRecord{
		{Ticker: "AAA", ScreenGroup: models.ScreenGrowth1, PreviousRank: models.IntPtr(3), CurrentRank: models.IntPtr(1), ChangeKind: models.ChangeUpgraded},
		{Ticker: "BBB", ScreenGroup: models.ScreenGrowth1, PreviousRank: models.IntPtr(1), ChangeKind: models.ChangeRemoved},
		{Ticker: "CCC", ScreenGroup: models.ScreenGrowth1, PreviousRank: models.IntPtr(1), CurrentRank: models.IntPtr(1), ChangeKind: models.ChangeUnchanged},
		{Ticker: "EEE", ScreenGroup: models.ScreenGrowth2, CurrentRank: models.IntPtr(1), ChangeKind: models.ChangeNewEntrant},
		{Ticker: "FFF", ScreenGroup: models.ScreenGrowth2, PreviousRank: models.IntPtr(1), CurrentRank: models.IntPtr(2), ChangeKind: models.ChangeDowngraded},
	}
	alloc := rules.Allocate(universe, val("100000"))
	return rules.Decide(universe, positions, deltas, alloc), deltas
}

func TestBuild(t *testing.T) {
	decisions, deltas := scenario()
	b := Build(decisions, deltas, val("100000"), val("20000"), Options{Label: "2026-03-02", Rules: engine.DefaultRules()})

	assert.Equal(t, models.CashBandBalanced, b.CashBand)
	require.True(t, b.CashPct.Valid)
	assert.True(t, decimal.NewFromInt(20).Equal(b.CashPct.Decimal))

	assert.Equal(t, 3, b.CountsByAction[models.ActionBuy])
	assert.Equal(t, 1, b.CountsByAction[models.ActionHold])
	assert.Equal(t, 0, b.CountsByAction[models.ActionTrim])
	assert.Equal(t, 3, b.Rank1Count)
	assert.Equal(t, 3, b.Rank1NewCandidates)
	assert.Equal(t, 0, b.Rank1Held)

	assert.Equal(t, []string{"AAA", "EEE"}, b.NewRank1Entrants)
	assert.Equal(t, []string{"BBB", "FFF"}, b.DroppedRank1)

	require.Len(t, b.TopBuys, 3)
	for _, row := range b.TopBuys {
		assert.True(t, decimal.NewFromInt(15).Equal(row.SuggestedAllocationPct))
		assert.True(t, decimal.NewFromInt(15000).Equal(row.EstimatedBuyAmount.Decimal))
	}

	assert.Equal(t, []string{
		"Fox Valley Tactical Brief - 2026-03-02",
		"Portfolio: $100,000.00 | Cash: $20,000.00 (20.0%)",
		"Signals: BUY 3 | HOLD 1 | TRIM 0",
		"Detected Rank #1 tickers: 3",
		"New Rank #1 candidates (not held): 3",
		"Held Rank #1 positions: 0",
		"New Rank #1 entrants: AAA, EEE",
		"Dropped from Rank #1: BBB, FFF",
		"Cash within tactical band - standard buy/trim playbook active.",
	}, b.NarrativeLines)
}

func TestBuild_Rank1AcrossGroups(t *testing.T) {
	t.Run("a ticker still rank 1 in another group is not dropped", func(t *testing.T) {
		deltas := []models.DeltaRecord{
			{Ticker: "AAA", ScreenGroup: models.ScreenGrowth1, PreviousRank: models.IntPtr(1), CurrentRank: models.IntPtr(1), ChangeKind: models.ChangeUnchanged},
			{Ticker: "AAA", ScreenGroup: models.ScreenGrowth2, PreviousRank: models.IntPtr(1), ChangeKind: models.ChangeRemoved},
		}
		b := Build(nil, deltas, val("100000"), val("20000"), Options{
			Label:         "2026-03-02",
			Rules:         engine.DefaultRules(),
			CurrentRank1:  engine.TickerSet{"AAA": {}},
			PreviousRank1: engine.TickerSet{"AAA": {}},
		})

		assert.Empty(t, b.NewRank1Entrants)
		assert.Empty(t, b.DroppedRank1)
		assert.Contains(t, b.NarrativeLines, "New Rank #1 entrants: none")
		assert.Contains(t, b.NarrativeLines, "Dropped from Rank #1: none")
	})

	t.Run("a ticker already rank 1 in another group is not a new entrant", func(t *testing.T) {
		deltas := []models.DeltaRecord{
			{Ticker: "BBB", ScreenGroup: models.ScreenGrowth2, CurrentRank: models.IntPtr(1), ChangeKind: models.ChangeNewEntrant},
			{Ticker: "CCC", ScreenGroup: models.ScreenGrowth2, CurrentRank: models.IntPtr(1), ChangeKind: models.ChangeNewEntrant},
		}
		b := Build(nil, deltas, val("100000"), val("20000"), Options{
			Rules:         engine.DefaultRules(),
			CurrentRank1:  engine.TickerSet{"BBB": {}, "CCC": {}},
			PreviousRank1: engine.TickerSet{"BBB": {}},
		})

		assert.Equal(t, []string{"CCC"}, b.NewRank1Entrants)
		assert.Empty(t, b.DroppedRank1)
	})

	t.Run("a rank 1 decision row keeps the ticker off the dropped list", func(t *testing.T) {
		decisions := []models.DecisionRow{{Ticker: "DDD", Rank: models.IntPtr(1)}}
		deltas := []models.DeltaRecord{
			{Ticker: "DDD", ScreenGroup: models.ScreenGrowth1, PreviousRank: models.IntPtr(1), CurrentRank: models.IntPtr(3), ChangeKind: models.ChangeDowngraded},
		}
		b := Build(decisions, deltas, val("100000"), val("20000"), Options{Rules: engine.DefaultRules()})

		assert.Empty(t, b.DroppedRank1)
	})
}

func TestBuild_IsDeterministic(t *testing.T) {
	decisions, deltas := scenario()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	opts := Options{Label: "Monday", SnapshotDate: &date, AverageGainPct: val("12.345"), Rules: engine.DefaultRules()}

	first := Build(decisions, deltas, val("100000"), val("20000"), opts)
	second := Build(decisions, deltas, val("100000"), val("20000"), opts)

	assert.Equal(t, first.NarrativeLines, second.NarrativeLines)
	assert.Equal(t, Markdown(first, decisions), Markdown(second, decisions))
}

func TestBuild_DoesNotReorderInput(t *testing.T) {
	decisions, deltas := scenario()
	reversed := make([]models.DecisionRow, 0, len(decisions))
	for i := len(decisions) - 1; i >= 0; i-- {
		reversed = append(reversed, decisions[i])
	}
	first := reversed[0].Ticker

	b := Build(reversed, deltas, val("100000"), val("20000"), Options{Rules: engine.DefaultRules()})
	assert.Equal(t, first, reversed[0].Ticker)
	assert.Equal(t, "AAA", b.TopBuys[0].Ticker)
}

func TestBuild_AverageGainAgainstBenchmark(t *testing.T) {
	rules := engine.DefaultRules()

	b := Build(nil, nil, val("1000"), val("100"), Options{AverageGainPct: val("12.34"), Rules: rules})
	assert.Contains(t, b.NarrativeLines, "Average position gain: 12.3%, behind the 26.0% benchmark")

	b = Build(nil, nil, val("1000"), val("100"), Options{AverageGainPct: val("40"), Rules: rules})
	assert.Contains(t, b.NarrativeLines, "Average position gain: 40.0%, ahead of the 26.0% benchmark")
}

func TestBuild_EmptyInputsDegradeToNeutral(t *testing.T) {
	b := Build(nil, nil, decimal.NullDecimal{}, decimal.NullDecimal{}, Options{Rules: engine.DefaultRules()})

	assert.Empty(t, b.CashBand)
	assert.False(t, b.CashPct.Valid)
	assert.Equal(t, 0, b.CountsByAction[models.ActionBuy])
	assert.NotNil(t, b.NewRank1Entrants)
	assert.NotNil(t, b.TopBuys)
	assert.Equal(t, "Fox Valley Tactical Brief", b.NarrativeLines[0])
	assert.Equal(t, "Portfolio: n/a | Cash: n/a (n/a)", b.NarrativeLines[1])
	assert.Equal(t, "Cash position unavailable.", b.NarrativeLines[len(b.NarrativeLines)-1])
}

func TestCashBand(t *testing.T) {
	rules := engine.DefaultRules()
	tests := []struct {
		pct  string
		want string
	}{
		{"0", models.CashBandTight},
		{"4.99", models.CashBandTight},
		{"5", models.CashBandBalanced},
		{"20", models.CashBandBalanced},
		{"25", models.CashBandBalanced},
		{"25.01", models.CashBandElevated},
	}
	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, CashBand(val(tt.pct), rules))
		})
	}
	assert.Empty(t, CashBand(decimal.NullDecimal{}, rules))
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1,234.57", FormatUSD(val("1234.567")))
	assert.Equal(t, "$0.00", FormatUSD(val("0")))
	assert.Equal(t, "n/a", FormatUSD(decimal.NullDecimal{}))
}

func TestMarkdownAndHTML(t *testing.T) {
	decisions, deltas := scenario()
	b := Build(decisions, deltas, val("100000"), val("20000"), Options{Label: "2026-03-02", Rules: engine.DefaultRules()})

	md := Markdown(b, decisions)
	assert.Contains(t, md, "# Fox Valley Tactical Brief - 2026-03-02")
	assert.Contains(t, md, "## Top Buys")
	assert.Contains(t, md, "| AAA | Growth 1 | 15.0% | $15,000.00 | 10% |")
	assert.Contains(t, md, "| KO | Defensive Dividend | 2 | yes | 4.0% | 70 | HOLD | 12% | 0.0% | - |")

	out, err := HTML(md)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Fox Valley Tactical Brief - 2026-03-02</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>AAA</td>")
}

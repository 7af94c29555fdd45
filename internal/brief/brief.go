// Package brief folds decisions and rank deltas into the daily tactical
// brief: counts, cash band, rank-1 movements and a fixed narrative
package brief

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/engine"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

// Title prefixes every brief
const Title = "Fox Valley Tactical Brief"

// Options carries the inputs of Build that are not decisions or deltas
type Options struct {
	Label          string
	SnapshotDate   *time.Time
	AverageGainPct decimal.NullDecimal
	Rules          engine.Rules

	// Rank is a property of the ticker, not of the screen. A ticker still
	// rank 1 in any current group is never reported as dropped, and one
	// already rank 1 in any previous group is never reported as new
	CurrentRank1  engine.TickerSet
	PreviousRank1 engine.TickerSet
}

// Build folds decisions and deltas into a Brief. It does not read the
// clock; identical inputs give identical narrative lines
func Build(decisions []models.DecisionRow, deltas []models.DeltaRecord, totalValue, cashValue decimal.NullDecimal, opts Options) *models.Brief {
	b := &models.Brief{
		Label:            opts.Label,
		SnapshotDate:     opts.SnapshotDate,
		TotalValue:       totalValue,
		CashValue:        cashValue,
		CashPct:          normalize.Percent(cashValue, totalValue),
		CountsByAction:   make(map[models.Action]int, len(models.Actions)),
		NewRank1Entrants: rank1Entrants(deltas, opts.PreviousRank1),
		DroppedRank1:     droppedRank1(deltas, stillRank1(decisions, opts.CurrentRank1)),
		AverageGainPct:   opts.AverageGainPct,
		TopBuys:          make([]models.DecisionRow, 0),
	}
	for _, a := range models.Actions {
		b.CountsByAction[a] = 0
	}
	b.CashBand = CashBand(b.CashPct, opts.Rules)

	sorted := append([]models.DecisionRow(nil), decisions...)
	engine.SortDecisions(sorted)
	for _, row := range sorted {
		b.CountsByAction[row.Action]++
		if row.Rank != nil && *row.Rank == 1 {
			b.Rank1Count++
			if row.Held {
				b.Rank1Held++
			} else {
				b.Rank1NewCandidates++
			}
		}
		if row.Action == models.ActionBuy && len(b.TopBuys) < opts.Rules.TopBuys {
			b.TopBuys = append(b.TopBuys, row)
		}
	}

	b.NarrativeLines = narrative(b, opts.Rules)
	return b
}

// CashBand classifies a cash percentage. An absent percentage has no band
func CashBand(cashPct decimal.NullDecimal, rules engine.Rules) string {
	if !cashPct.Valid {
		return ""
	}
	switch {
	case cashPct.Decimal.LessThan(decimal.NewFromFloat(rules.CashTightPct)):
		return models.CashBandTight
	case cashPct.Decimal.GreaterThan(decimal.NewFromFloat(rules.CashElevatedPct)):
		return models.CashBandElevated
	}
	return models.CashBandBalanced
}

// rank1Entrants lists tickers that reached rank 1 since the previous
// snapshot and were not rank 1 in any previous group
func rank1Entrants(deltas []models.DeltaRecord, previous engine.TickerSet) []string {
	return collect(deltas, func(d models.DeltaRecord) bool {
		return (d.ChangeKind == models.ChangeNewEntrant || d.ChangeKind == models.ChangeUpgraded) &&
			d.CurrentRank != nil && *d.CurrentRank == 1 && !previous.Has(d.Ticker)
	})
}

// droppedRank1 lists tickers that left rank 1 since the previous snapshot
// and are not rank 1 anywhere now
func droppedRank1(deltas []models.DeltaRecord, current engine.TickerSet) []string {
	return collect(deltas, func(d models.DeltaRecord) bool {
		return (d.ChangeKind == models.ChangeRemoved || d.ChangeKind == models.ChangeDowngraded) &&
			d.PreviousRank != nil && *d.PreviousRank == 1 && !current.Has(d.Ticker)
	})
}

func stillRank1(decisions []models.DecisionRow, current engine.TickerSet) engine.TickerSet {
	set := make(engine.TickerSet, len(current))
	for t := range current {
		set[t] = struct{}{}
	}
	for _, row := range decisions {
		if row.Rank != nil && *row.Rank == 1 {
			set[row.Ticker] = struct{}{}
		}
	}
	return set
}

func collect(deltas []models.DeltaRecord, keep func(models.DeltaRecord) bool) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, d := range deltas {
		if !keep(d) || seen[d.Ticker] {
			continue
		}
		seen[d.Ticker] = true
		out = append(out, d.Ticker)
	}
	return out
}

func narrative(b *models.Brief, rules engine.Rules) []string {
	title := Title
	if b.Label != "" {
		title += " - " + b.Label
	}

	lines := []string{
		title,
		fmt.Sprintf("Portfolio: %s | Cash: %s (%s)", FormatUSD(b.TotalValue), FormatUSD(b.CashValue), FormatPct(b.CashPct)),
		fmt.Sprintf("Signals: BUY %d | HOLD %d | TRIM %d",
			b.CountsByAction[models.ActionBuy], b.CountsByAction[models.ActionHold], b.CountsByAction[models.ActionTrim]),
		fmt.Sprintf("Detected Rank #1 tickers: %d", b.Rank1Count),
		fmt.Sprintf("New Rank #1 candidates (not held): %d", b.Rank1NewCandidates),
		fmt.Sprintf("Held Rank #1 positions: %d", b.Rank1Held),
		"New Rank #1 entrants: " + listOrNone(b.NewRank1Entrants),
		"Dropped from Rank #1: " + listOrNone(b.DroppedRank1),
	}

	if b.AverageGainPct.Valid {
		benchmark := decimal.NewFromFloat(rules.BenchmarkROIPct)
		verdict := "in line with"
		switch b.AverageGainPct.Decimal.Cmp(benchmark) {
		case 1:
			verdict = "ahead of"
		case -1:
			verdict = "behind"
		}
		lines = append(lines, fmt.Sprintf("Average position gain: %s, %s the %s benchmark",
			FormatPct(b.AverageGainPct), verdict, FormatPct(normalize.Present(benchmark))))
	}

	switch b.CashBand {
	case models.CashBandTight:
		lines = append(lines, "Liquidity tight - prioritize profit-taking or defensive posture.")
	case models.CashBandElevated:
		lines = append(lines, "Cash elevated - window open to redeploy into high-conviction #1s.")
	case models.CashBandBalanced:
		lines = append(lines, "Cash within tactical band - standard buy/trim playbook active.")
	default:
		lines = append(lines, "Cash position unavailable.")
	}
	return lines
}

func listOrNone(tickers []string) string {
	if len(tickers) == 0 {
		return "none"
	}
	return strings.Join(tickers, ", ")
}

// FormatUSD renders an amount as dollars and cents, "n/a" when absent
func FormatUSD(v decimal.NullDecimal) string {
	if !v.Valid {
		return "n/a"
	}
	cents := v.Decimal.Round(2).Shift(2).IntPart()
	return money.New(cents, money.USD).Display()
}

// FormatPct renders a percentage with one decimal, "n/a" when absent
func FormatPct(v decimal.NullDecimal) string {
	if !v.Valid {
		return "n/a"
	}
	return v.Decimal.StringFixed(1) + "%"
}

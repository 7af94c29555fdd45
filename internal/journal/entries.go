// Package journal produces rows for the append-only tactical journal and
// keeps the manual order log and ROI history as explicit values passed in
// and returned. Nothing here reads the journal back for scoring
package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// TimestampLayout is the journal timestamp format
const TimestampLayout = "2006-01-02 15:04:05"

func rankString(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *r)
}

// FromDecisions records the actionable rows (BUY, TRIM and RISK)
func FromDecisions(decisions []models.DecisionRow, at time.Time) []models.JournalEntry {
	entries := make([]models.JournalEntry, 0)
	for _, row := range decisions {
		switch row.Action {
		case models.ActionBuy, models.ActionTrim, models.ActionRisk:
		default:
			continue
		}
		e := models.JournalEntry{
			Timestamp: at,
			Action:    string(row.Action),
			Ticker:    row.Ticker,
			Notes:     fmt.Sprintf("%s rank %s, score %d, stop %s", row.ScreenGroup.Label(), rankString(row.Rank), row.Score, row.SuggestedStopPct),
		}
		if row.SuggestedAllocationPct.IsPositive() {
			e.Percent = decimal.NullDecimal{Decimal: row.SuggestedAllocationPct, Valid: true}
		} else if row.Held {
			e.Percent = row.GainLossPct
		}
		entries = append(entries, e)
	}
	return entries
}

// FromDeltas records every rank change other than UNCHANGED
func FromDeltas(deltas []models.DeltaRecord, at time.Time) []models.JournalEntry {
	entries := make([]models.JournalEntry, 0)
	for _, d := range deltas {
		if d.ChangeKind == models.ChangeUnchanged {
			continue
		}
		entries = append(entries, models.JournalEntry{
			Timestamp: at,
			Action:    string(d.ChangeKind),
			Ticker:    d.Ticker,
			Notes:     fmt.Sprintf("%s rank %s -> %s", d.ScreenGroup.Label(), rankString(d.PreviousRank), rankString(d.CurrentRank)),
		})
	}
	return entries
}

// FromOrders records captured order tickets
func FromOrders(orders []models.Order) []models.JournalEntry {
	entries := make([]models.JournalEntry, 0, len(orders))
	for _, o := range orders {
		action := models.JournalOrderBuy
		if o.Side == models.OrderSideSell {
			action = models.JournalOrderSell
		}
		entries = append(entries, models.JournalEntry{
			Timestamp: o.Timestamp,
			Action:    action,
			Ticker:    o.Ticker,
			Quantity:  decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(o.Shares)), Valid: true},
			Notes:     "manual order ticket",
		})
	}
	return entries
}

// FullExits records EXIT_FULL for exited tickers not already logged as such
func FullExits(exited []string, logged []models.JournalEntry, at time.Time) []models.JournalEntry {
	done := make(map[string]bool)
	for _, e := range logged {
		if e.Action == models.JournalExitFull {
			done[e.Ticker] = true
		}
	}
	entries := make([]models.JournalEntry, 0)
	for _, ticker := range exited {
		if done[ticker] {
			continue
		}
		done[ticker] = true
		entries = append(entries, models.JournalEntry{
			Timestamp: at,
			Action:    models.JournalExitFull,
			Ticker:    ticker,
			Notes:     "position value reached zero",
		})
	}
	return entries
}

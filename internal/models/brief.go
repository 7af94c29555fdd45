package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cash band constants
const (
	CashBandTight    = "tight liquidity"
	CashBandElevated = "cash elevated"
	CashBandBalanced = "balanced"
)

// Brief is the per-run summary folded from decisions and deltas
type Brief struct {
	ID                 string              `json:"id,omitempty"`
	Label              string              `json:"label"`
	SnapshotDate       *time.Time          `json:"snapshot_date,omitempty"`
	TotalValue         decimal.NullDecimal `json:"total_value"`
	CashValue          decimal.NullDecimal `json:"cash_value"`
	CashPct            decimal.NullDecimal `json:"cash_pct"`
	CashBand           string              `json:"cash_band"`
	CountsByAction     map[Action]int      `json:"counts_by_action"`
	Rank1Count         int                 `json:"rank1_count"`
	Rank1NewCandidates int                 `json:"rank1_new_candidates"`
	Rank1Held          int                 `json:"rank1_held"`
	NewRank1Entrants   []string            `json:"new_rank1_entrants"`
	DroppedRank1       []string            `json:"dropped_rank1"`
	AverageGainPct     decimal.NullDecimal `json:"average_gain_pct"`
	TopBuys            []DecisionRow       `json:"top_buys"`
	NarrativeLines     []string            `json:"narrative_lines"`
	CreatedAt          time.Time           `json:"created_at,omitempty"`
}

// TacticalBriefEvent represents a Kafka event announcing a new brief
type TacticalBriefEvent struct {
	EventType string `json:"event_type"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Data      *Brief `json:"data"`
}

// BriefRecord is a stored brief with its rendered markdown export
type BriefRecord struct {
	Brief    *Brief `json:"brief"`
	Markdown string `json:"markdown"`
}

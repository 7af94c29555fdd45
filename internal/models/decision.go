package models

import "github.com/shopspring/decimal"

// Action is the discrete recommendation bucket of a decision row
type Action string

// Action constants
const (
	ActionBuy         Action = "BUY"
	ActionHold        Action = "HOLD"
	ActionTrim        Action = "TRIM"
	ActionWatch       Action = "WATCH"
	ActionRisk        Action = "RISK"
	ActionLowPriority Action = "LOW_PRIORITY"
)

// Actions lists every action in display order
var Actions = []Action{ActionBuy, ActionHold, ActionTrim, ActionWatch, ActionRisk, ActionLowPriority}

// Stop signal constants for held positions
const (
	StopSignalHold          = "HOLD"
	StopSignalStopLoss      = "SELL_STOP_LOSS"
	StopSignalSecureProfits = "TRIM_SECURE_PROFITS"
)

// MatchStatus tags a screen row against the current holdings
type MatchStatus string

// Match status constants
const (
	MatchHeld      MatchStatus = "HELD"
	MatchCandidate MatchStatus = "CANDIDATE"
)

// CrossMatchRow is a screen entry tagged with its holding status
type CrossMatchRow struct {
	ScreenEntry
	Status           MatchStatus `json:"status"`
	SuggestedStopPct string      `json:"suggested_stop_pct"`
}

// DecisionRow is one scored recommendation for a ticker of the combined universe
type DecisionRow struct {
	Ticker                 string              `json:"ticker"`
	Rank                   *int                `json:"rank"`
	ScreenGroup            ScreenGroup         `json:"screen_group"`
	Held                   bool                `json:"held"`
	GainLossPct            decimal.NullDecimal `json:"gain_loss_pct"`
	MarketValue            decimal.NullDecimal `json:"market_value"`
	Score                  int                 `json:"score"`
	Action                 Action              `json:"action"`
	SuggestedStopPct       string              `json:"suggested_stop_pct"`
	SuggestedAllocationPct decimal.Decimal     `json:"suggested_allocation_pct"`
	EstimatedBuyAmount     decimal.NullDecimal `json:"estimated_buy_amount"`
	Change                 ChangeKind          `json:"change,omitempty"`
	StopSignal             string              `json:"stop_signal,omitempty"`
}

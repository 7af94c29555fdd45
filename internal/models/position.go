package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents one held security in a portfolio snapshot.
// Absent numeric values are carried as invalid NullDecimals, never as zero
type Position struct {
	Ticker      string              `json:"ticker"`
	Shares      decimal.NullDecimal `json:"shares"`
	MarketPrice decimal.NullDecimal `json:"market_price"`
	CostBasis   decimal.NullDecimal `json:"cost_basis"`
	MarketValue decimal.NullDecimal `json:"market_value"`
	GainLossPct decimal.NullDecimal `json:"gain_loss_pct"`
	UpdatedAt   time.Time           `json:"updated_at,omitempty"`
}

// PositionsEvent represents a Kafka message with a position snapshot from the broker
type PositionsEvent struct {
	EventType string             `json:"event_type"`
	Source    string             `json:"source"`
	Timestamp string             `json:"timestamp"`
	Data      PositionsEventData `json:"data"`
}

// PositionsEventData contains the positions and account balance
type PositionsEventData struct {
	Positions   []PositionData `json:"positions"`
	BuyingPower string         `json:"buying_power"`
	Cash        string         `json:"cash"`
	TotalEquity string         `json:"total_equity"`
}

// PositionData represents a single position as reported by the broker
type PositionData struct {
	Symbol          string `json:"symbol"`
	Quantity        string `json:"quantity"`
	AverageBuyPrice string `json:"average_buy_price"`
	Equity          string `json:"equity"`
	PercentChange   string `json:"percent_change"`
	UpdatedAt       string `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal action constants beyond the decision actions
const (
	JournalOrderBuy  = "ORDER_BUY"
	JournalOrderSell = "ORDER_SELL"
	JournalExitFull  = "EXIT_FULL"
)

// Order side constants
const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"
)

// JournalEntry is one row of the append-only tactical journal
type JournalEntry struct {
	ID        int                 `json:"id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Action    string              `json:"action"`
	Ticker    string              `json:"ticker"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	Percent   decimal.NullDecimal `json:"percent"`
	Notes     string              `json:"notes,omitempty"`
}

// Order is one captured manual order ticket. Orders are never executed
type Order struct {
	Side      string    `json:"side"`
	Ticker    string    `json:"ticker"`
	Shares    int       `json:"shares"`
	Timestamp time.Time `json:"timestamp"`
}

// ROIPoint is one day of the portfolio return history
type ROIPoint struct {
	Date  time.Time           `json:"date"`
	Value decimal.NullDecimal `json:"value"`
	Cash  decimal.NullDecimal `json:"cash"`
	ROI   decimal.NullDecimal `json:"roi"`
}

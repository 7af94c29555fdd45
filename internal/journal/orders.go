package journal

import (
	"time"

	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

// OrderInput is one submission of the order ticket form
type OrderInput struct {
	BuyTicker  string `json:"buy_ticker"`
	BuyShares  int    `json:"buy_shares"`
	SellTicker string `json:"sell_ticker"`
	SellShares int    `json:"sell_shares"`
}

// CaptureOrders returns a new order log with the valid legs of in appended.
// A leg needs a ticker and a positive share count. The input log is not
// modified
func CaptureOrders(log []models.Order, in OrderInput, at time.Time) []models.Order {
	out := make([]models.Order, len(log), len(log)+2)
	copy(out, log)

	legs := []struct {
		side   string
		ticker string
		shares int
	}{
		{models.OrderSideBuy, in.BuyTicker, in.BuyShares},
		{models.OrderSideSell, in.SellTicker, in.SellShares},
	}
	for _, leg := range legs {
		ticker := normalize.NormalizeTicker(leg.ticker)
		if ticker == "" || leg.shares <= 0 {
			continue
		}
		out = append(out, models.Order{Side: leg.side, Ticker: ticker, Shares: leg.shares, Timestamp: at})
	}
	return out
}

// Package engine holds the reconciliation and decision rules: the combined
// screen universe, cross-matching against holdings, the snapshot differ,
// scoring and the equal-weight allocation among rank-1 signals
package engine

import (
	"errors"
	"fmt"
)

// Rules holds every tunable threshold of the decision engine
type Rules struct {
	CashFloor          float64  `toml:"cash_floor"`
	PositionCap        float64  `toml:"position_cap"`
	StopRank1          string   `toml:"stop_rank1"`
	StopDefault        string   `toml:"stop_default"`
	Rank1TrimGainPct   float64  `toml:"rank1_trim_gain_pct"`
	RiskLossPct        float64  `toml:"risk_loss_pct"`
	ProfitTrimGainPct  float64  `toml:"profit_trim_gain_pct"`
	CashTightPct       float64  `toml:"cash_tight_pct"`
	CashElevatedPct    float64  `toml:"cash_elevated_pct"`
	CashTickers        []string `toml:"cash_tickers"`
	StopLossTriggerPct float64  `toml:"stop_loss_trigger_pct"`
	SecureProfitsPct   float64  `toml:"secure_profits_pct"`
	BenchmarkROIPct    float64  `toml:"benchmark_roi_pct"`
	TopBuys            int      `toml:"top_buys"`
}

// DefaultRules returns the production thresholds
func DefaultRules() Rules {
	return Rules{
		CashFloor:          0.15,
		PositionCap:        0.15,
		StopRank1:          "10%",
		StopDefault:        "12%",
		Rank1TrimGainPct:   25,
		RiskLossPct:        -15,
		ProfitTrimGainPct:  30,
		CashTightPct:       5,
		CashElevatedPct:    25,
		CashTickers:        []string{"SPAXX", "FDRXX", "FCASH", "CORE"},
		StopLossTriggerPct: -15,
		SecureProfitsPct:   25,
		BenchmarkROIPct:    26,
		TopBuys:            5,
	}
}

// Validate checks that fractions are in range and labels are set
func (r Rules) Validate() error {
	var errs []error
	if r.CashFloor < 0 || r.CashFloor >= 1 {
		errs = append(errs, fmt.Errorf("cash_floor must be in [0, 1): %v", r.CashFloor))
	}
	if r.PositionCap <= 0 || r.PositionCap > 1 {
		errs = append(errs, fmt.Errorf("position_cap must be in (0, 1]: %v", r.PositionCap))
	}
	if r.StopRank1 == "" || r.StopDefault == "" {
		errs = append(errs, errors.New("stop labels must not be empty"))
	}
	if r.CashTightPct > r.CashElevatedPct {
		errs = append(errs, fmt.Errorf("cash_tight_pct %v exceeds cash_elevated_pct %v", r.CashTightPct, r.CashElevatedPct))
	}
	if r.TopBuys < 0 {
		errs = append(errs, fmt.Errorf("top_buys must not be negative: %d", r.TopBuys))
	}
	return errors.Join(errs...)
}

// IsCash reports whether ticker is one of the configured cash sweep tickers
func (r Rules) IsCash(ticker string) bool {
	for _, c := range r.CashTickers {
		if c == ticker {
			return true
		}
	}
	return false
}

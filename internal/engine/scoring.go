package engine

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// ScoreInput is the (rank, holding state) tuple a decision is made on
type ScoreInput struct {
	Rank        *int
	Held        bool
	GainLossPct decimal.NullDecimal
}

func (in ScoreInput) rankIs(r int) bool {
	return in.Rank != nil && *in.Rank == r
}

// ScoreResult is the outcome of Score
type ScoreResult struct {
	Score            int
	Action           models.Action
	SuggestedStopPct string
}

type scoringRule struct {
	name   string
	match  func(ScoreInput) bool
	score  int
	action models.Action
}

// Scorer classifies rows with a fixed precedence table; the first matching
// rule wins
type Scorer struct {
	rules Rules
	table []scoringRule
}

// NewScorer builds the precedence table from rules
func NewScorer(rules Rules) *Scorer {
	rank1Trim := decimal.NewFromFloat(rules.Rank1TrimGainPct)
	riskLoss := decimal.NewFromFloat(rules.RiskLossPct)
	profitTrim := decimal.NewFromFloat(rules.ProfitTrimGainPct)

	gainAtLeast := func(in ScoreInput, d decimal.Decimal) bool {
		return in.GainLossPct.Valid && in.GainLossPct.Decimal.GreaterThanOrEqual(d)
	}
	gainBelow := func(in ScoreInput, d decimal.Decimal) bool {
		return in.GainLossPct.Valid && in.GainLossPct.Decimal.LessThan(d)
	}
	gainAbove := func(in ScoreInput, d decimal.Decimal) bool {
		return in.GainLossPct.Valid && in.GainLossPct.Decimal.GreaterThan(d)
	}

	return &Scorer{
		rules: rules,
		table: []scoringRule{
			{"rank1 candidate", func(in ScoreInput) bool { return in.rankIs(1) && !in.Held }, 95, models.ActionBuy},
			{"rank1 held, large gain", func(in ScoreInput) bool { return in.rankIs(1) && in.Held && gainAtLeast(in, rank1Trim) }, 80, models.ActionTrim},
			{"rank1 held", func(in ScoreInput) bool { return in.rankIs(1) && in.Held }, 85, models.ActionHold},
			{"rank2 held", func(in ScoreInput) bool { return in.rankIs(2) && in.Held }, 70, models.ActionHold},
			{"rank2 candidate", func(in ScoreInput) bool { return in.rankIs(2) && !in.Held }, 65, models.ActionWatch},
			{"held, deep loss", func(in ScoreInput) bool { return in.Held && gainBelow(in, riskLoss) }, 55, models.ActionRisk},
			{"held, large gain", func(in ScoreInput) bool { return in.Held && gainAbove(in, profitTrim) }, 60, models.ActionTrim},
		},
	}
}

// Score classifies one row
func (s *Scorer) Score(in ScoreInput) ScoreResult {
	res := ScoreResult{Score: 40, Action: models.ActionLowPriority, SuggestedStopPct: s.rules.StopDefault}
	if in.rankIs(1) {
		res.SuggestedStopPct = s.rules.StopRank1
	}
	for _, rule := range s.table {
		if rule.match(in) {
			res.Score = rule.score
			res.Action = rule.action
			break
		}
	}
	return res
}

// StopSignal overlays the stop-loss / secure-profits check on a held row
func (r Rules) StopSignal(gain decimal.NullDecimal, action models.Action) string {
	if !gain.Valid {
		return models.StopSignalHold
	}
	if gain.Decimal.LessThanOrEqual(decimal.NewFromFloat(r.StopLossTriggerPct)) {
		return models.StopSignalStopLoss
	}
	if gain.Decimal.GreaterThanOrEqual(decimal.NewFromFloat(r.SecureProfitsPct)) && action != models.ActionBuy {
		return models.StopSignalSecureProfits
	}
	return models.StopSignalHold
}

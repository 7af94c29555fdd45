// Package pipeline runs one pass of the tactical engine: raw tables are
// normalized, cross-matched, diffed against the previous snapshot, scored
// and folded into a brief. A run has no side effects and identical inputs
// give identical results
package pipeline

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/brief"
	"github.com/trogers1052/fox-valley-engine/internal/engine"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

// Condition kinds reported for whole tables
const (
	ConditionSchemaError = "schema_error"
	ConditionEmptyInput  = "empty_input"
)

// Condition is a table-level problem surfaced to the caller. The table it
// names was treated as empty
type Condition struct {
	Kind    string `json:"kind"`
	Table   string `json:"table"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ScreenTable is one raw screen export with its group and snapshot date
type ScreenTable struct {
	Group models.ScreenGroup
	Date  time.Time
	Table normalize.Table
}

// Input is a run over raw tables
type Input struct {
	Label           string
	Portfolio       normalize.Table
	CashOverride    decimal.NullDecimal
	Screens         []ScreenTable
	PreviousScreens []ScreenTable
}

// Facts is a run over already normalized records
type Facts struct {
	Label           string
	SnapshotDate    *time.Time
	Positions       []models.Position
	CashOverride    decimal.NullDecimal
	Screens         map[models.ScreenGroup][]models.ScreenEntry
	PreviousScreens map[models.ScreenGroup][]models.ScreenEntry
}

// Result is everything one run produces
type Result struct {
	Label          string                                      `json:"label"`
	SnapshotDate   *time.Time                                  `json:"snapshot_date,omitempty"`
	Positions      []models.Position                           `json:"positions"`
	Screens        map[models.ScreenGroup][]models.ScreenEntry `json:"screens"`
	Universe       []models.ScreenEntry                        `json:"universe"`
	CrossMatches   []models.CrossMatchRow                      `json:"cross_matches"`
	Decisions      []models.DecisionRow                        `json:"decisions"`
	Deltas         []models.DeltaRecord                        `json:"deltas"`
	Allocation     engine.Allocation                           `json:"allocation"`
	TotalValue     decimal.NullDecimal                         `json:"total_value"`
	CashValue      decimal.NullDecimal                         `json:"cash_value"`
	AverageGainPct decimal.NullDecimal                         `json:"average_gain_pct"`
	FullExits      []string                                    `json:"full_exits"`
	Brief          *models.Brief                               `json:"brief"`
	Conditions     []Condition                                 `json:"conditions"`
	Diagnostics    []normalize.Diagnostic                      `json:"diagnostics"`
}

// Changes returns the deltas other than UNCHANGED
func (r *Result) Changes() []models.DeltaRecord {
	return engine.Changes(r.Deltas)
}

// Engine runs the pipeline with one set of rules
type Engine struct {
	rules engine.Rules
}

// New creates an Engine
func New(rules engine.Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the rules the engine was built with
func (e *Engine) Rules() engine.Rules {
	return e.rules
}

// Run normalizes the raw tables and evaluates them. Table-level failures
// become Conditions; the run itself never fails on bad input data
func (e *Engine) Run(in Input) *Result {
	var conditions []Condition
	var diagnostics []normalize.Diagnostic

	facts := Facts{
		Label:           in.Label,
		CashOverride:    in.CashOverride,
		Screens:         make(map[models.ScreenGroup][]models.ScreenEntry),
		PreviousScreens: make(map[models.ScreenGroup][]models.ScreenEntry),
	}

	pos, err := normalize.NormalizePositions(in.Portfolio, normalize.PositionColumns)
	conditions = appendCondition(conditions, in.Portfolio.Name, err)
	diagnostics = append(diagnostics, pos.Diagnostics...)
	if err == nil {
		facts.Positions = pos.Positions
	}

	load := func(tables []ScreenTable, into map[models.ScreenGroup][]models.ScreenEntry, current bool) {
		for _, st := range tables {
			res, err := normalize.NormalizeScreen(st.Table, st.Group, st.Date, normalize.ScreenColumns)
			conditions = appendCondition(conditions, st.Table.Name, err)
			diagnostics = append(diagnostics, res.Diagnostics...)
			if err != nil {
				continue
			}
			into[st.Group] = append(into[st.Group], res.Entries...)
			if current && (facts.SnapshotDate == nil || st.Date.After(*facts.SnapshotDate)) {
				d := st.Date
				facts.SnapshotDate = &d
			}
		}
	}
	load(in.Screens, facts.Screens, true)
	load(in.PreviousScreens, facts.PreviousScreens, false)

	res := e.Evaluate(facts)
	res.Conditions = append(conditions, res.Conditions...)
	res.Diagnostics = append(diagnostics, res.Diagnostics...)
	return res
}

// Evaluate runs the engine over normalized facts
func (e *Engine) Evaluate(f Facts) *Result {
	r := e.rules

	label := f.Label
	if label == "" && f.SnapshotDate != nil {
		label = f.SnapshotDate.Format("2006-01-02")
	}

	screens := f.Screens
	if screens == nil {
		screens = make(map[models.ScreenGroup][]models.ScreenEntry)
	}
	positions := f.Positions
	if positions == nil {
		positions = make([]models.Position, 0)
	}

	universe := engine.CombinedUniverse(screens)
	total, cash := r.Totals(positions, f.CashOverride)
	deltas := engine.DiffAll(f.PreviousScreens, screens)
	alloc := r.Allocate(universe, total)
	decisions := r.Decide(universe, positions, deltas, alloc)
	avg := r.AverageGain(positions)

	b := brief.Build(decisions, deltas, total, cash, brief.Options{
		Label:          label,
		SnapshotDate:   f.SnapshotDate,
		AverageGainPct: avg,
		Rules:          r,
		CurrentRank1:   engine.Rank1Set(screens),
		PreviousRank1:  engine.Rank1Set(f.PreviousScreens),
	})

	return &Result{
		Label:          label,
		SnapshotDate:   f.SnapshotDate,
		Positions:      positions,
		Screens:        screens,
		Universe:       universe,
		CrossMatches:   r.CrossMatch(universe, engine.HeldSet(positions)),
		Decisions:      decisions,
		Deltas:         deltas,
		Allocation:     alloc,
		TotalValue:     total,
		CashValue:      cash,
		AverageGainPct: avg,
		FullExits:      r.FullExits(positions),
		Brief:          b,
		Conditions:     make([]Condition, 0),
		Diagnostics:    make([]normalize.Diagnostic, 0),
	}
}

func appendCondition(conditions []Condition, table string, err error) []Condition {
	if err == nil {
		return conditions
	}
	c := Condition{Table: table, Message: err.Error(), Err: err}

	var schemaErr *normalize.SchemaError
	var emptyErr *normalize.EmptyInputWarning
	switch {
	case errors.As(err, &schemaErr):
		c.Kind = ConditionSchemaError
	case errors.As(err, &emptyErr):
		c.Kind = ConditionEmptyInput
	default:
		c.Kind = "error"
	}
	return append(conditions, c)
}

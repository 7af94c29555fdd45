package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// rankPattern accepts "1", "1.0", "1 - Strong Buy" and "1-Strong Buy"
var rankPattern = regexp.MustCompile(`^([+-]?\d+)(?:\.0*)?(?:\s*[-:]?\s*[A-Za-z].*)?$`)

// ScreenResult holds the normalized entries of one screen table
type ScreenResult struct {
	Entries     []models.ScreenEntry `json:"entries"`
	Diagnostics []Diagnostic         `json:"diagnostics,omitempty"`
}

// ParseRank reads a rank cell. ok is false when the cell is not an integer
func ParseRank(raw string) (rank int, ok bool) {
	m := rankPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeScreen maps a screen export onto ScreenEntry records for one
// group and snapshot date. A duplicated ticker keeps its first occurrence
func NormalizeScreen(t Table, group models.ScreenGroup, date time.Time, m ColumnMatcher) (*ScreenResult, error) {
	res := &ScreenResult{}
	if t.IsEmpty() {
		return res, &EmptyInputWarning{Table: t.Name}
	}

	cols := m.Resolve(t.Columns)
	tickerIdx, ok := cols[FieldTicker]
	if !ok {
		return res, &SchemaError{Table: t.Name, Field: FieldTicker}
	}
	rankIdx, hasRank := cols[FieldRank]
	if !hasRank {
		rankIdx = -1
		res.note(t.Name, 0, FieldRank, "no rank column, ranks undefined")
	}
	if len(t.Rows) == 0 {
		return res, &EmptyInputWarning{Table: t.Name}
	}

	seen := make(map[string]bool)
	for i, row := range t.Rows {
		rowNum := i + 1
		ticker := NormalizeTicker(cell(row, tickerIdx))
		if ticker == "" {
			res.note(t.Name, rowNum, FieldTicker, "empty ticker, row skipped")
			continue
		}
		if seen[ticker] {
			res.note(t.Name, rowNum, FieldTicker, "duplicate ticker "+ticker+", first row wins")
			continue
		}
		seen[ticker] = true

		entry := models.ScreenEntry{
			Ticker:       ticker,
			ScreenGroup:  group,
			SnapshotDate: date,
		}
		if rankIdx >= 0 {
			raw := cell(row, rankIdx)
			if r, ok := ParseRank(raw); ok {
				entry.Rank = models.IntPtr(r)
			} else {
				res.note(t.Name, rowNum, FieldRank, "rank "+strconv.Quote(raw)+" is not an integer")
			}
		}
		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

func (r *ScreenResult) note(table string, row int, field, msg string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Table: table, Row: row, Field: field, Message: msg})
}

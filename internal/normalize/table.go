package normalize

import "strings"

// Table is a pre-parsed tabular input: a header row and string cells
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// IsEmpty reports whether the table has neither header nor rows
func (t Table) IsEmpty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// cell returns the trimmed value at idx, or "" when the row is short or idx < 0
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

package normalize

import "fmt"

// SchemaError reports a required column that is absent from a table.
// The table is treated as empty downstream
type SchemaError struct {
	Table string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: required field %s not found", e.Table, e.Field)
}

// EmptyInputWarning reports a table with no data rows
type EmptyInputWarning struct {
	Table string
}

func (e *EmptyInputWarning) Error() string {
	return fmt.Sprintf("table %s: no rows", e.Table)
}

// ParseError reports a cell that failed numeric coercion. It never aborts
// normalization; the cell becomes an absent value
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("not a number: %q", e.Value)
}

// Diagnostic is a non-fatal note raised while normalizing one table
type Diagnostic struct {
	Table   string `json:"table"`
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Row > 0 {
		return fmt.Sprintf("%s row %d %s: %s", d.Table, d.Row, d.Field, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Table, d.Field, d.Message)
}

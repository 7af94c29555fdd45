package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// Header is the journal CSV header
var Header = []string{"timestamp", "action", "ticker", "quantity", "percent", "notes"}

func nullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

// AppendCSV writes entries as CSV rows, preceded by the header when
// writeHeader is set
func AppendCSV(w io.Writer, entries []models.JournalEntry, writeHeader bool) error {
	cw := csv.NewWriter(w)
	if writeHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("failed to write journal header: %w", err)
		}
	}
	for _, e := range entries {
		record := []string{
			e.Timestamp.Format(TimestampLayout),
			e.Action,
			e.Ticker,
			nullString(e.Quantity),
			nullString(e.Percent),
			e.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write journal row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	return nil
}

// AppendFile appends entries to the journal file at path, creating it with
// a header when it does not exist or is empty
func AppendFile(path string, entries []models.JournalEntry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat journal %s: %w", path, err)
	}
	if err := AppendCSV(f, entries, info.Size() == 0); err != nil {
		return err
	}
	return f.Close()
}

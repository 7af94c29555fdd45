// Package tables reads broker and screen CSV exports into normalize.Table
// values and derives snapshot metadata from their file names
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

const dateLayout = "2006-01-02"

var (
	datePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	groupPattern = regexp.MustCompile(`(?i)(growth[ _-]?[12]|defensive(?:[ _-]?dividends?)?|dividends?)`)
)

// ErrNoSnapshotDate is returned when a file name carries no YYYY-MM-DD date
var ErrNoSnapshotDate = errors.New("no snapshot date in file name")

// ReadCSV parses a CSV export. The first record is the header; blank rows
// are skipped and short rows are padded to the header width
func ReadCSV(name string, r io.Reader) (normalize.Table, error) {
	t := normalize.Table{Name: name}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		t.Columns = append(t.Columns, strings.TrimSpace(col))
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return t, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if blank(record) {
			continue
		}
		if len(record) < len(t.Columns) {
			record = append(record, make([]string, len(t.Columns)-len(record))...)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// ReadCSVFile opens path and parses it with ReadCSV, naming the table after
// the file
func ReadCSVFile(path string) (normalize.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return normalize.Table{Name: filepath.Base(path)}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(filepath.Base(path), f)
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// SnapshotDate extracts the first YYYY-MM-DD date from a file name
func SnapshotDate(name string) (time.Time, error) {
	m := datePattern.FindString(filepath.Base(name))
	if m == "" {
		return time.Time{}, fmt.Errorf("%s: %w", name, ErrNoSnapshotDate)
	}
	d, err := time.Parse(dateLayout, m)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse snapshot date of %s: %w", name, err)
	}
	return d, nil
}

// ScreenGroupFromName detects the screen group named in a file name such as
// "zacks_growth1_2026-03-02.csv"
func ScreenGroupFromName(name string) (models.ScreenGroup, error) {
	m := groupPattern.FindString(filepath.Base(name))
	if m == "" {
		return "", fmt.Errorf("no screen group in file name %q", name)
	}
	return models.ParseScreenGroup(m)
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// SaveScreenSnapshot replaces the stored entries of one group and date
func (db *DB) SaveScreenSnapshot(group models.ScreenGroup, date time.Time, entries []models.ScreenEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM screen_entries WHERE screen_group = $1 AND snapshot_date = $2`, string(group), date)
	if err != nil {
		return fmt.Errorf("failed to delete screen snapshot: %w", err)
	}

	query := `
		INSERT INTO screen_entries (screen_group, snapshot_date, ticker, rank, ordinal)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, e := range entries {
		var rank sql.NullInt64
		if e.Rank != nil {
			rank = sql.NullInt64{Int64: int64(*e.Rank), Valid: true}
		}
		if _, err := tx.Exec(query, string(group), date, e.Ticker, rank, i); err != nil {
			return fmt.Errorf("failed to insert screen entry %s: %w", e.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit screen snapshot: %w", err)
	}
	return nil
}

// GetScreenSnapshot returns the entries of one group and date in export order
func (db *DB) GetScreenSnapshot(group models.ScreenGroup, date time.Time) ([]models.ScreenEntry, error) {
	query := `
		SELECT ticker, rank, screen_group, snapshot_date
		FROM screen_entries
		WHERE screen_group = $1 AND snapshot_date = $2
		ORDER BY ordinal
	`
	return scanScreenEntries(db.conn.Query(query, string(group), date))
}

// GetScreenSnapshots returns every group stored for date
func (db *DB) GetScreenSnapshots(date time.Time) (map[models.ScreenGroup][]models.ScreenEntry, error) {
	query := `
		SELECT ticker, rank, screen_group, snapshot_date
		FROM screen_entries
		WHERE snapshot_date = $1
		ORDER BY screen_group, ordinal
	`
	entries, err := scanScreenEntries(db.conn.Query(query, date))
	if err != nil {
		return nil, err
	}
	screens := make(map[models.ScreenGroup][]models.ScreenEntry)
	for _, e := range entries {
		screens[e.ScreenGroup] = append(screens[e.ScreenGroup], e)
	}
	return screens, nil
}

// GetSnapshotDates returns the most recent snapshot dates, newest first
func (db *DB) GetSnapshotDates(limit int) ([]time.Time, error) {
	query := `
		SELECT DISTINCT snapshot_date
		FROM screen_entries
		ORDER BY snapshot_date DESC
		LIMIT $1
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0, limit)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		dates = append(dates, d.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot dates: %w", err)
	}
	return dates, nil
}

func scanScreenEntries(rows *sql.Rows, err error) ([]models.ScreenEntry, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query screen entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.ScreenEntry, 0)
	for rows.Next() {
		var e models.ScreenEntry
		var rank sql.NullInt64
		var group string
		if err := rows.Scan(&e.Ticker, &rank, &group, &e.SnapshotDate); err != nil {
			return nil, fmt.Errorf("failed to scan screen entry: %w", err)
		}
		e.ScreenGroup = models.ScreenGroup(group)
		e.SnapshotDate = e.SnapshotDate.UTC()
		if rank.Valid {
			e.Rank = models.IntPtr(int(rank.Int64))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate screen entries: %w", err)
	}
	return entries, nil
}

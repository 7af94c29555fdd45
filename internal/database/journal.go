package database

import (
	"database/sql"
	"fmt"

	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// AppendJournalEntries inserts entries in one transaction and sets their IDs
func (db *DB) AppendJournalEntries(entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO journal_entries (logged_at, action, ticker, quantity, percent, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range entries {
		e := &entries[i]
		err := tx.QueryRow(query, e.Timestamp, e.Action, e.Ticker, e.Quantity, e.Percent, e.Notes).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("failed to insert journal entry %s %s: %w", e.Action, e.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal entries: %w", err)
	}
	return nil
}

// GetJournalEntries returns the most recent entries, newest first
func (db *DB) GetJournalEntries(limit int) ([]models.JournalEntry, error) {
	query := `
		SELECT id, logged_at, action, ticker, quantity, percent, notes
		FROM journal_entries
		ORDER BY logged_at DESC, id DESC
		LIMIT $1
	`
	return scanJournalEntries(db.conn.Query(query, limit))
}

// GetJournalEntriesByAction returns every entry with the given action, oldest first
func (db *DB) GetJournalEntriesByAction(action string) ([]models.JournalEntry, error) {
	query := `
		SELECT id, logged_at, action, ticker, quantity, percent, notes
		FROM journal_entries
		WHERE action = $1
		ORDER BY logged_at, id
	`
	return scanJournalEntries(db.conn.Query(query, action))
}

func scanJournalEntries(rows *sql.Rows, err error) ([]models.JournalEntry, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.Ticker, &e.Quantity, &e.Percent, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return entries, nil
}

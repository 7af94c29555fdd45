package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// SaveBrief stores a brief and its markdown export. A missing ID is
// generated and CreatedAt is stamped
func (db *DB) SaveBrief(b *models.Brief, markdown string) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal brief: %w", err)
	}

	var snapshotDate sql.NullTime
	if b.SnapshotDate != nil {
		snapshotDate = sql.NullTime{Time: *b.SnapshotDate, Valid: true}
	}

	query := `
		INSERT INTO briefs (id, label, snapshot_date, payload, markdown, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := db.conn.Exec(query, b.ID, b.Label, snapshotDate, payload, markdown, b.CreatedAt); err != nil {
		return fmt.Errorf("failed to save brief: %w", err)
	}
	return nil
}

// GetLatestBrief returns the most recently stored brief
func (db *DB) GetLatestBrief() (*models.BriefRecord, error) {
	query := `
		SELECT payload, markdown
		FROM briefs
		ORDER BY created_at DESC
		LIMIT 1
	`
	var payload []byte
	var markdown string
	err := db.conn.QueryRow(query).Scan(&payload, &markdown)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("brief %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest brief: %w", err)
	}

	var b models.Brief
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal brief: %w", err)
	}
	return &models.BriefRecord{Brief: &b, Markdown: markdown}, nil
}

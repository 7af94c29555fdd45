package database

import (
	"fmt"
	"time"

	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// ReplaceAllPositions swaps the stored portfolio snapshot for positions in
// one transaction. Input order is kept in the ordinal column
func (db *DB) ReplaceAllPositions(positions []models.Position) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to delete existing positions: %w", err)
	}

	query := `
		INSERT INTO positions (
			ticker, ordinal, shares, market_price, cost_basis,
			market_value, gain_loss_pct, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now().UTC()
	for i := range positions {
		p := &positions[i]
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		_, err := tx.Exec(query,
			p.Ticker, i, p.Shares, p.MarketPrice, p.CostBasis,
			p.MarketValue, p.GainLossPct, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit positions: %w", err)
	}
	return nil
}

// GetAllPositions returns the stored snapshot in import order
func (db *DB) GetAllPositions() ([]models.Position, error) {
	query := `
		SELECT ticker, shares, market_price, cost_basis, market_value, gain_loss_pct, updated_at
		FROM positions
		ORDER BY ordinal
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		err := rows.Scan(&p.Ticker, &p.Shares, &p.MarketPrice, &p.CostBasis, &p.MarketValue, &p.GainLossPct, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	return positions, nil
}

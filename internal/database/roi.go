package database

import (
	"fmt"

	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// UpsertROIPoint stores the ROI point of a day, replacing an earlier one
func (db *DB) UpsertROIPoint(p models.ROIPoint) error {
	query := `
		INSERT INTO roi_history (date, total_value, cash_value, roi, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (date) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			cash_value = EXCLUDED.cash_value,
			roi = EXCLUDED.roi,
			updated_at = NOW()
	`
	if _, err := db.conn.Exec(query, p.Date, p.Value, p.Cash, p.ROI); err != nil {
		return fmt.Errorf("failed to upsert roi point: %w", err)
	}
	return nil
}

// GetROIHistory returns the ROI history, oldest first
func (db *DB) GetROIHistory() ([]models.ROIPoint, error) {
	query := `
		SELECT date, total_value, cash_value, roi
		FROM roi_history
		ORDER BY date
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roi history: %w", err)
	}
	defer rows.Close()

	history := make([]models.ROIPoint, 0)
	for rows.Next() {
		var p models.ROIPoint
		if err := rows.Scan(&p.Date, &p.Value, &p.Cash, &p.ROI); err != nil {
			return nil, fmt.Errorf("failed to scan roi point: %w", err)
		}
		p.Date = p.Date.UTC()
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roi history: %w", err)
	}
	return history, nil
}

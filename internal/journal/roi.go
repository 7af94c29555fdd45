package journal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// NewROIPoint builds the history point for one day. An absent average gain
// is recorded as zero ROI
func NewROIPoint(date time.Time, total, cash, averageGain decimal.NullDecimal) models.ROIPoint {
	roi := averageGain
	if !roi.Valid {
		roi = decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
	}
	return models.ROIPoint{
		Date:  truncateDay(date),
		Value: total,
		Cash:  cash,
		ROI:   roi,
	}
}

// MergeROI returns a new history with point added, keeping the last point
// per calendar date, ordered by date
func MergeROI(history []models.ROIPoint, point models.ROIPoint) []models.ROIPoint {
	byDay := make(map[time.Time]models.ROIPoint, len(history)+1)
	for _, p := range append(append([]models.ROIPoint(nil), history...), point) {
		byDay[truncateDay(p.Date)] = p
	}
	out := make([]models.ROIPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

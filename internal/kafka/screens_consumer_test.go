package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

type savedSnapshot struct {
	group   models.ScreenGroup
	date    time.Time
	entries []models.ScreenEntry
}

type mockScreensRepo struct {
	saved []savedSnapshot
	err   error
}

func (m *mockScreensRepo) SaveScreenSnapshot(group models.ScreenGroup, date time.Time, entries []models.ScreenEntry) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, savedSnapshot{group, date, entries})
	return nil
}

func screenMessage(t *testing.T, eventType string, data models.ScreenSnapshotData) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(models.ScreenSnapshotEvent{
		EventType: eventType,
		Source:    "zacks-export",
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	})
	require.NoError(t, err)
	return kafka.Message{Value: payload}
}

func TestScreensConsumer_processMessage(t *testing.T) {
	t.Run("normalizes and stores the snapshot", func(t *testing.T) {
		repo := &mockScreensRepo{}
		consumer := &ScreensConsumer{repo: repo, log: zerolog.Nop()}

		msg := screenMessage(t, EventScreenSnapshot, models.ScreenSnapshotData{
			Group:        "growth 1",
			SnapshotDate: "2026-03-02",
			Columns:      []string{"Symbol", "Zacks Rank"},
			Rows:         [][]string{{"aapl", "1"}, {"msft", "3-Hold"}, {"AAPL", "2"}},
		})

		require.NoError(t, consumer.processMessage(msg))
		require.Len(t, repo.saved, 1)

		saved := repo.saved[0]
		assert.Equal(t, models.ScreenGrowth1, saved.group)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), saved.date)
		require.Len(t, saved.entries, 2)
		assert.Equal(t, "AAPL", saved.entries[0].Ticker)
		assert.Equal(t, 1, *saved.entries[0].Rank)
		assert.Equal(t, 3, *saved.entries[1].Rank)
	})

	t.Run("group and date fall back to the file name", func(t *testing.T) {
		repo := &mockScreensRepo{}
		consumer := &ScreensConsumer{repo: repo, log: zerolog.Nop()}

		msg := screenMessage(t, EventScreenSnapshot, models.ScreenSnapshotData{
			FileName: "zacks_defensive_dividend_2026-03-01.csv",
			Columns:  []string{"Ticker", "Rank"},
			Rows:     [][]string{{"KO", "2"}},
		})

		require.NoError(t, consumer.processMessage(msg))
		require.Len(t, repo.saved, 1)
		assert.Equal(t, models.ScreenDefensiveDividend, repo.saved[0].group)
		assert.Equal(t, 1, repo.saved[0].date.Day())
	})

	t.Run("missing ticker column is a schema error", func(t *testing.T) {
		repo := &mockScreensRepo{}
		consumer := &ScreensConsumer{repo: repo, log: zerolog.Nop()}

		msg := screenMessage(t, EventScreenSnapshot, models.ScreenSnapshotData{
			Group:        "GROWTH_2",
			SnapshotDate: "2026-03-02",
			Columns:      []string{"Company", "Rank"},
			Rows:         [][]string{{"Apple", "1"}},
		})

		err := consumer.processMessage(msg)
		var schemaErr *normalize.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "ticker", schemaErr.Field)
		assert.Empty(t, repo.saved)
	})

	t.Run("empty snapshots are skipped", func(t *testing.T) {
		repo := &mockScreensRepo{}
		consumer := &ScreensConsumer{repo: repo, log: zerolog.Nop()}

		msg := screenMessage(t, EventScreenSnapshot, models.ScreenSnapshotData{
			Group:        "GROWTH_2",
			SnapshotDate: "2026-03-02",
			Columns:      []string{"Ticker", "Rank"},
		})

		require.NoError(t, consumer.processMessage(msg))
		assert.Empty(t, repo.saved)
	})

	t.Run("unknown group is rejected", func(t *testing.T) {
		consumer := &ScreensConsumer{repo: &mockScreensRepo{}, log: zerolog.Nop()}
		msg := screenMessage(t, EventScreenSnapshot, models.ScreenSnapshotData{Group: "value", SnapshotDate: "2026-03-02"})
		require.Error(t, consumer.processMessage(msg))
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		repo := &mockScreensRepo{}
		consumer := &ScreensConsumer{repo: repo, log: zerolog.Nop()}
		require.NoError(t, consumer.processMessage(screenMessage(t, "SCREEN_DELETED", models.ScreenSnapshotData{})))
		assert.Empty(t, repo.saved)
	})

	t.Run("repository errors are returned", func(t *testing.T) {
		consumer := &ScreensConsumer{repo: &mockScreensRepo{err: errors.New("db down")}, log: zerolog.Nop()}
		msg := screenMessage(t, EventScreenSnapshot, models.ScreenSnapshotData{
			Group: "GROWTH_1", SnapshotDate: "2026-03-02",
			Columns: []string{"Ticker", "Rank"}, Rows: [][]string{{"AAPL", "1"}},
		})
		err := consumer.processMessage(msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save screen snapshot")
	})
}

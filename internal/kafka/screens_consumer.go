package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
	"github.com/trogers1052/fox-valley-engine/internal/tables"
)

// EventScreenSnapshot is the event type carrying one exported screen
const EventScreenSnapshot = "SCREEN_SNAPSHOT"

// ScreensRepository stores screen snapshots
type ScreensRepository interface {
	SaveScreenSnapshot(group models.ScreenGroup, date time.Time, entries []models.ScreenEntry) error
}

// ScreensConsumer normalizes and stores screen exports
type ScreensConsumer struct {
	reader messageReader
	repo   ScreensRepository
	log    zerolog.Logger
}

// NewScreensConsumer creates a consumer for screen snapshots
func NewScreensConsumer(brokers []string, topic, groupID string, repo ScreensRepository, log zerolog.Logger) *ScreensConsumer {
	return &ScreensConsumer{
		reader: newReader(brokers, topic, groupID),
		repo:   repo,
		log:    log.With().Str("component", "screens_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *ScreensConsumer) Start(ctx context.Context) error {
	return consume(ctx, c.reader, c.log, c.processMessage)
}

func (c *ScreensConsumer) processMessage(msg kafka.Message) error {
	var event models.ScreenSnapshotEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal screen event: %w", err)
	}

	if event.EventType != EventScreenSnapshot {
		c.log.Debug().Str("event_type", event.EventType).Msg("Ignoring event type")
		return nil
	}

	data := event.Data
	group, err := screenGroup(data)
	if err != nil {
		return err
	}
	date, err := snapshotDate(data)
	if err != nil {
		return err
	}

	table := normalize.Table{Name: data.FileName, Columns: data.Columns, Rows: data.Rows}
	if table.Name == "" {
		table.Name = fmt.Sprintf("%s %s", group, date.Format("2006-01-02"))
	}

	res, err := normalize.NormalizeScreen(table, group, date, normalize.ScreenColumns)
	var empty *normalize.EmptyInputWarning
	if errors.As(err, &empty) {
		c.log.Warn().Str("table", table.Name).Msg("Screen snapshot has no rows, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to normalize screen snapshot: %w", err)
	}
	for _, d := range res.Diagnostics {
		c.log.Warn().Str("diagnostic", d.String()).Msg("Screen normalization note")
	}

	if err := c.repo.SaveScreenSnapshot(group, date, res.Entries); err != nil {
		return fmt.Errorf("failed to save screen snapshot: %w", err)
	}

	c.log.Info().
		Str("group", string(group)).
		Time("snapshot_date", date).
		Int("entries", len(res.Entries)).
		Msg("Stored screen snapshot")
	return nil
}

// screenGroup takes the group from the payload, falling back to the file name
func screenGroup(data models.ScreenSnapshotData) (models.ScreenGroup, error) {
	if data.Group != "" {
		return models.ParseScreenGroup(data.Group)
	}
	return tables.ScreenGroupFromName(data.FileName)
}

// snapshotDate takes the date from the payload, falling back to the file name
func snapshotDate(data models.ScreenSnapshotData) (time.Time, error) {
	if data.SnapshotDate != "" {
		d, err := time.Parse("2006-01-02", data.SnapshotDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid snapshot date %s: %w", data.SnapshotDate, err)
		}
		return d, nil
	}
	return tables.SnapshotDate(data.FileName)
}

// Close closes the Kafka consumer
func (c *ScreensConsumer) Close() error {
	return c.reader.Close()
}

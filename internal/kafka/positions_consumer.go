package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
)

// EventPositionsSnapshot is the event type carrying a full portfolio snapshot
const EventPositionsSnapshot = "POSITIONS_SNAPSHOT"

// PositionsRepository stores portfolio snapshots
type PositionsRepository interface {
	ReplaceAllPositions(positions []models.Position) error
}

// PositionsConsumer replaces the stored portfolio with each broker snapshot
type PositionsConsumer struct {
	reader     messageReader
	repo       PositionsRepository
	cashTicker string
	log        zerolog.Logger
}

// NewPositionsConsumer creates a consumer for portfolio snapshots. Cash in
// the snapshot is stored as a position under cashTicker
func NewPositionsConsumer(brokers []string, topic, groupID, cashTicker string, repo PositionsRepository, log zerolog.Logger) *PositionsConsumer {
	return &PositionsConsumer{
		reader:     newReader(brokers, topic, groupID),
		repo:       repo,
		cashTicker: cashTicker,
		log:        log.With().Str("component", "positions_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *PositionsConsumer) Start(ctx context.Context) error {
	return consume(ctx, c.reader, c.log, c.processMessage)
}

func (c *PositionsConsumer) processMessage(msg kafka.Message) error {
	var event models.PositionsEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal positions event: %w", err)
	}

	if event.EventType != EventPositionsSnapshot {
		c.log.Debug().Str("event_type", event.EventType).Msg("Ignoring event type")
		return nil
	}

	positions := c.convertSnapshot(event.Data)
	if err := c.repo.ReplaceAllPositions(positions); err != nil {
		return fmt.Errorf("failed to replace positions: %w", err)
	}

	c.log.Info().
		Str("source", event.Source).
		Int("positions", len(positions)).
		Msg("Stored positions snapshot")
	return nil
}

// convertSnapshot maps broker position data onto Position records. Tickers
// are normalized and duplicates keep the last row
func (c *PositionsConsumer) convertSnapshot(data models.PositionsEventData) []models.Position {
	now := time.Now().UTC()
	slots := make(map[string]int)
	positions := make([]models.Position, 0, len(data.Positions)+1)

	put := func(p models.Position) {
		if slot, ok := slots[p.Ticker]; ok {
			positions[slot] = p
			return
		}
		slots[p.Ticker] = len(positions)
		positions = append(positions, p)
	}

	for _, d := range data.Positions {
		ticker := normalize.NormalizeTicker(d.Symbol)
		if ticker == "" {
			c.log.Warn().Str("symbol", d.Symbol).Msg("Skipping position without ticker")
			continue
		}

		p := models.Position{
			Ticker:      ticker,
			Shares:      c.number(ticker, "quantity", d.Quantity),
			CostBasis:   c.number(ticker, "average_buy_price", d.AverageBuyPrice),
			MarketValue: c.number(ticker, "equity", d.Equity),
			UpdatedAt:   now,
		}
		if p.MarketValue.Valid && p.Shares.Valid && p.Shares.Decimal.IsPositive() {
			p.MarketPrice = normalize.Present(p.MarketValue.Decimal.Div(p.Shares.Decimal))
		}
		p.GainLossPct = normalize.GainLossPct(p.MarketPrice, p.CostBasis)
		if !p.GainLossPct.Valid {
			p.GainLossPct = c.number(ticker, "percent_change", d.PercentChange)
		}
		if t, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
			p.UpdatedAt = t.UTC()
		}
		put(p)
	}

	cash := c.number(c.cashTicker, "cash", data.Cash)
	if !cash.Valid {
		cash = c.number(c.cashTicker, "buying_power", data.BuyingPower)
	}
	if cash.Valid && c.cashTicker != "" {
		put(models.Position{
			Ticker:      c.cashTicker,
			Shares:      cash,
			MarketPrice: normalize.Present(decimal.NewFromInt(1)),
			MarketValue: cash,
			UpdatedAt:   now,
		})
	}
	return positions
}

func (c *PositionsConsumer) number(ticker, field, raw string) decimal.NullDecimal {
	v, err := normalize.ParseNumber(raw)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Str("field", field).Msg("Unreadable value, treating as absent")
	}
	return v
}

// Close closes the Kafka consumer
func (c *PositionsConsumer) Close() error {
	return c.reader.Close()
}

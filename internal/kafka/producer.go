package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/fox-valley-engine/internal/models"
)

// Event types published by the engine
const (
	EventTacticalBrief = "TACTICAL_BRIEF"
	EventRankDelta     = "RANK_DELTA"

	eventSource = "fox-valley-engine"
)

// messageWriter is the subset of *kafka.Writer used by the producer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishBrief publishes a tactical brief event
func (p *Producer) PublishBrief(ctx context.Context, b *models.Brief) error {
	event := models.TacticalBriefEvent{
		EventType: EventTacticalBrief,
		Source:    eventSource,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      b,
	}
	msg, err := message(b.Label, event)
	if err != nil {
		return err
	}
	return p.write(ctx, msg)
}

// PublishDeltas publishes one rank delta event per record, keyed by ticker
func (p *Producer) PublishDeltas(ctx context.Context, deltas []models.DeltaRecord) error {
	if len(deltas) == 0 {
		return nil
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafka.Message, 0, len(deltas))
	for _, d := range deltas {
		msg, err := message(d.Ticker, models.DeltaEvent{
			EventType: EventRankDelta,
			Source:    eventSource,
			Timestamp: ts,
			Data:      d,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.write(ctx, msgs...)
}

func message(key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{Key: []byte(key), Value: data}, nil
}

func (p *Producer) write(ctx context.Context, msgs ...kafka.Message) error {
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

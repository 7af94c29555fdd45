package kafka

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageReader is the subset of *kafka.Reader used by the consumers
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

func newReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})
}

// consume reads messages until ctx is cancelled. Processing errors are
// logged and the loop moves on to the next message
func consume(ctx context.Context, reader messageReader, log zerolog.Logger, handle func(kafka.Message) error) error {
	log.Info().Str("topic", reader.Config().Topic).Msg("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Kafka consumer shutting down")
			return reader.Close()
		default:
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Error().Err(err).Msg("Error reading message")
				continue
			}

			log.Debug().
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Str("key", string(msg.Key)).
				Msg("Received message")

			if err := handle(msg); err != nil {
				log.Error().Err(err).Int64("offset", msg.Offset).Msg("Error processing message")
			}
		}
	}
}

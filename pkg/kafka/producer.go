// Package kafka publishes build events with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Event is one message. Value is encoded as JSON; Type travels as the
// "event-type" header so consumers can route without decoding the body.
type Event struct {
	Key   string
	Type  string
	Value any
}

// Producer writes synchronously to the index-complete topic. Retries are
// left to the caller so each attempt can carry its own deadline.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.IndexComplete,
			Balancer:               &kafka.Hash{},
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            1,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", cfg.IndexComplete),
	}
}

func (p *Producer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if event.Type != "" {
		msg.Headers = []kafka.Header{{Key: "event-type", Value: []byte(event.Type)}}
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	p.logger.Debug("event published", "type", event.Type, "key", event.Key, "bytes", len(value))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Package kafka provides an eventstream publisher backed by Apache Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/eventstream"
)

// DefaultTopic is the topic events are published to when none is
// configured.
const DefaultTopic = "leaflet.events"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the destination topic (default: DefaultTopic).
	Topic string
}

// Publisher writes events to a Kafka topic, keyed by session ID so one
// session's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	logger.Info("connected kafka event publisher",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishSessionIngested publishes a session ingestion event.
func (p *Publisher) PublishSessionIngested(ctx context.Context, event *eventstream.SessionIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return p.publish(ctx, event.SessionID, event)
}

// PublishTurnCompleted publishes a completed turn event.
func (p *Publisher) PublishTurnCompleted(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return p.publish(ctx, event.SessionID, event)
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("writing event to kafka: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("session_id", key),
		zap.Int("bytes", len(value)),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)

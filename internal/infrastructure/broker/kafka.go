// Package broker provides Kafka publishing for domain events.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
)

// Producer publishes messages to a Kafka topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &Producer{writer: writer}
}

// PublishEvent publishes a JSON-encoded event keyed by the aggregate.
func (p *Producer) PublishEvent(ctx context.Context, key string, event any) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka: %w", err)
	}

	logger.Debug(ctx, "event published", "key", key, "topic", p.writer.Topic)
	return nil
}

// PublishRaw publishes an already serialized payload.
func (p *Producer) PublishRaw(ctx context.Context, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka: %w", err)
	}
	return nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// OutboxForwarder hands outbox messages to Kafka. Implements
// postgres.OutboxHandler for the relay worker.
type OutboxForwarder struct {
	producer *Producer
}

// NewOutboxForwarder creates a forwarder over a producer.
func NewOutboxForwarder(producer *Producer) *OutboxForwarder {
	return &OutboxForwarder{producer: producer}
}

// Handle publishes one outbox message, keyed by aggregate ID so events
// of one aggregate stay ordered within a partition.
func (f *OutboxForwarder) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	return f.producer.PublishRaw(ctx, msg.AggregateID.String(), msg.Payload)
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer implements Producer using segmentio/kafka-go. A nil
// KafkaProducer is valid and drops all events, so callers need no broker in
// development.
type KafkaProducer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewKafkaProducer creates a Kafka producer writing identity events to the
// given topic, keyed by username so one user's events stay ordered. Returns
// nil when brokers or topic are unset. Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string, log *zap.Logger) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, log: log}
}

// Emit serializes the event as JSON and writes it to the topic. Uses a short
// timeout so a slow broker does not block callers indefinitely.
func (p *KafkaProducer) Emit(ctx context.Context, event *Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.Username),
		Value: payload,
	})
	if err != nil {
		p.log.Warn("kafka emit failed", zap.String("type", event.Type), zap.Error(err))
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call multiple times and on nil.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// PublishAsync emits the event on a detached goroutine, dropping errors. Use
// for fire-and-forget notifications from request handlers.
func PublishAsync(p Producer, eventType, username string, metadata map[string]string) {
	if p == nil {
		return
	}
	event := &Event{
		Type:     eventType,
		Username: username,
		At:       time.Now().UTC(),
		Metadata: metadata,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = p.Emit(ctx, event)
	}()
}

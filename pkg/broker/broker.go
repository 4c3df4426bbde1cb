// Package broker publishes domain events to Kafka so downstream systems
// (fulfilment, ERP, analytics) can follow orders without polling the API.
//
// Without KAFKA_BROKERS the log publisher is used and events only reach the
// application log.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Message is the envelope written to the topic.
type Message struct {
	Type       string      `json:"event_type"`
	Key        string      `json:"key"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, data interface{}) error
	Close() error
}

// Kafka publishes through a sarama SyncProducer, keyed so that every event
// of one order lands on the same partition.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafka dials brokers with an idempotent, all-acks producer.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = "storefront"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("broker: create kafka producer: %w", err)
	}
	return NewKafkaWithProducer(producer, topic), nil
}

// NewKafkaWithProducer wraps an existing producer. Tests pass sarama's mock.
func NewKafkaWithProducer(p sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, eventType, key string, data interface{}) error {
	payload, err := json.Marshal(Message{
		Type:       eventType,
		Key:        key,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("broker: marshal %s: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(payload),
		Headers:   []sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte(eventType)}},
		Timestamp: time.Now(),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		logger.WithCtx(ctx).Error("broker: publish failed", "topic", k.topic, "event", eventType, "key", key, "error", err)
		return fmt.Errorf("broker: send %s: %w", eventType, err)
	}

	logger.WithCtx(ctx).Debug("broker: published",
		"topic", k.topic, "event", eventType, "key", key, "partition", partition, "offset", offset)
	return nil
}

func (k *Kafka) Close() error {
	if err := k.producer.Close(); err != nil {
		return fmt.Errorf("broker: close kafka producer: %w", err)
	}
	return nil
}

// LogPublisher writes events to the application log.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, eventType, key string, _ interface{}) error {
	logger.WithCtx(ctx).Info("broker: (log driver) event", "event", eventType, "key", key)
	return nil
}

func (LogPublisher) Close() error { return nil }

var (
	mu      sync.RWMutex
	current Publisher = LogPublisher{}
)

// Connect selects Kafka when KAFKA_BROKERS is set. A broker that cannot be
// reached is an error; the caller decides whether to fall back.
func Connect() error {
	brokers := config.KafkaBrokers()
	if len(brokers) == 0 {
		logger.Info("broker: no KAFKA_BROKERS, events are logged only")
		return nil
	}
	k, err := NewKafka(brokers, config.KafkaTopic())
	if err != nil {
		return err
	}
	Use(k)
	logger.Info("broker: connected", "brokers", brokers, "topic", config.KafkaTopic())
	return nil
}

// Use swaps the package publisher. Passing nil restores the log publisher.
func Use(p Publisher) {
	if p == nil {
		p = LogPublisher{}
	}
	mu.Lock()
	current = p
	mu.Unlock()
}

// Publish sends through the package publisher.
func Publish(ctx context.Context, eventType, key string, data interface{}) error {
	mu.RLock()
	p := current
	mu.RUnlock()
	return p.Publish(ctx, eventType, key, data)
}

// Close closes the package publisher.
func Close() error {
	mu.RLock()
	p := current
	mu.RUnlock()
	return p.Close()
}

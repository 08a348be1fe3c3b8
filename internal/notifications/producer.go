package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventwizard/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher announces submitted events
type Publisher interface {
	PublishEventSubmitted(ctx context.Context, msg *EventSubmitted) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka publisher
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "event-submissions",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// SaramaConfig translates c into a sarama producer configuration
func (c *KafkaProducerConfig) SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "eventwizard"
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = c.RequiredAcks
	cfg.Producer.Compression = c.CompressionType
	cfg.Producer.Retry.Max = c.RetryMax
	cfg.Producer.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	cfg.Producer.Idempotent = c.IdempotentWrites
	cfg.Producer.MaxMessageBytes = c.MaxMessageBytes

	// Idempotent writes need a single in-flight request per connection
	if c.IdempotentWrites {
		cfg.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one event's messages in order
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// KafkaPublisher publishes EventSubmitted messages to Kafka
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

// NewKafkaPublisher connects a sync producer to the configured brokers
func NewKafkaPublisher(config *KafkaProducerConfig, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(config.Brokers, config.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, config.Topic, log), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: log}
}

// PublishEventSubmitted sends msg keyed by its event id
func (p *KafkaPublisher) PublishEventSubmitted(ctx context.Context, msg *EventSubmitted) error {
	messageBytes, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event submitted message: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(msg.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   createHeaders(msg),
		Timestamp: msg.SubmittedAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send event submitted message to Kafka: %w", err)
	}

	p.logger.InfoContext(ctx, "Event submission published",
		slog.String("topic", p.topic),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
		slog.String("event_id", msg.EventID),
		slog.String("type", string(msg.Type)),
	)
	return nil
}

func createHeaders(msg *EventSubmitted) []sarama.RecordHeader {
	supplierIDs := make([]string, 0, len(msg.Suppliers))
	for _, s := range msg.Suppliers {
		supplierIDs = append(supplierIDs, s.SupplierID)
	}

	return []sarama.RecordHeader{
		{Key: []byte("message_id"), Value: []byte(msg.ID.String())},
		{Key: []byte("message_type"), Value: []byte(msg.Type)},
		{Key: []byte("event_id"), Value: []byte(msg.EventID)},
		{Key: []byte("producer_id"), Value: []byte(msg.ProducerID)},
		{Key: []byte("supplier_ids"), Value: []byte(strings.Join(supplierIDs, ","))},
		{Key: []byte("version"), Value: []byte("1.0")},
		{Key: []byte("producer"), Value: []byte("eventwizard")},
		{Key: []byte("submitted_at"), Value: []byte(msg.SubmittedAt.Format(time.RFC3339))},
	}
}

// Close closes the Kafka producer
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// NoopPublisher drops every message; used when Kafka is disabled
type NoopPublisher struct{}

func (NoopPublisher) PublishEventSubmitted(context.Context, *EventSubmitted) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }

package notifications

import (
	"context"
	"fmt"
	"time"

	"campusbook/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher emits ledger events after a transition has committed.
type Publisher interface {
	Publish(ctx context.Context, events ...LedgerEvent) error
	Close() error
}

type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "ledger-events",
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaPublisher writes ledger events to one topic, keyed by event or resource id so every
// transition of one ledger lands on the same partition in order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

func NewKafkaPublisher(config *KafkaProducerConfig, log *logger.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, config, log), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, config *KafkaProducerConfig, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaPublisher{producer: producer, config: config, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]*sarama.ProducerMessage, 0, len(events))
	for _, e := range events {
		payload, err := e.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal ledger event %s: %w", e.ID, err)
		}
		messages = append(messages, &sarama.ProducerMessage{
			Topic: p.config.Topic,
			Key:   sarama.StringEncoder(e.Key),
			Value: sarama.ByteEncoder(payload),
			Headers: []sarama.RecordHeader{
				{Key: []byte("event_type"), Value: []byte(e.Type)},
				{Key: []byte("event_id"), Value: []byte(e.ID)},
			},
			Timestamp: e.OccurredAt,
		})
	}

	if err := p.producer.SendMessages(messages); err != nil {
		return fmt.Errorf("failed to publish %d ledger events: %w", len(messages), err)
	}

	p.log.DebugContext(ctx, "Ledger events published", "topic", p.config.Topic, "count", len(messages))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...LedgerEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SalahEddine-Ra/TeamFLow/internal/events"
)

const (
	cloudEventSpecVersion     = "1.0"
	cloudEventDataContentType = "application/json"
)

// cloudEvent is the CloudEvents v1.0 envelope wrapping every published event.
type cloudEvent struct {
	SpecVersion     string               `json:"specversion"`
	Type            string               `json:"type"`
	Source          string               `json:"source"`
	Subject         string               `json:"subject,omitempty"`
	ID              string               `json:"id"`
	Time            time.Time            `json:"time"`
	DataContentType string               `json:"datacontenttype"`
	Data            events.SecurityEvent `json:"data"`
}

// Producer publishes security events to a Kafka topic as CloudEvents.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	source   string
	logger   *zap.Logger
}

// NewProducer creates a sync Kafka producer. source identifies this service in
// the CloudEvent envelope, for example "/teamflow/auth-service".
func NewProducer(brokers []string, topic string, source string, logger *zap.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    topic,
		source:   source,
		logger:   logger,
	}, nil
}

// PublishSecurityEvent wraps the event in a CloudEvent and sends it. The
// partition key is the event subject so all events for a user stay ordered.
func (p *Producer) PublishSecurityEvent(ctx context.Context, eventType events.EventType, event events.SecurityEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	subject := fmt.Sprintf("user:%d", event.UserID)

	envelope := cloudEvent{
		SpecVersion:     cloudEventSpecVersion,
		Type:            string(eventType),
		Source:          p.source,
		Subject:         subject,
		ID:              uuid.NewString(),
		Time:            event.Time,
		DataContentType: cloudEventDataContentType,
		Data:            event,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal security event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(subject),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("failed to publish security event",
			zap.String("type", string(eventType)), zap.Error(err))
		return fmt.Errorf("failed to publish security event: %w", err)
	}

	p.logger.Debug("security event published",
		zap.String("type", string(eventType)),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close shuts down the underlying producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}

var _ events.Publisher = (*Producer)(nil)

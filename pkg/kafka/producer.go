package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/rajeevhemai/unify-mdm/config"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg config.Config, logger ectologger.Logger) *Producer {
	return NewProducerWithConfig(ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducerWithConfig creates a new Kafka producer with explicit config
func NewProducerWithConfig(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// GoldenRecordEvent describes a golden record lifecycle change.
type GoldenRecordEvent struct {
	EventType       string          `json:"event_type"` // created, updated, consolidated, promoted
	GoldenRecordID  string          `json:"golden_record_id"`
	RemovedGoldenID string          `json:"removed_golden_id,omitempty"`
	SourceRecordIDs []string        `json:"source_record_ids,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	SourceCount     int             `json:"source_count"`
	Timestamp       time.Time       `json:"timestamp"`
}

// PublishGoldenRecordEvent publishes a golden record event. Messages are keyed
// by golden record id so one record's events stay ordered within a partition.
func (p *Producer) PublishGoldenRecordEvent(ctx context.Context, event *GoldenRecordEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishGoldenRecordEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.GoldenRecordID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type":       event.EventType,
			"golden_record_id": event.GoldenRecordID,
		}).Error("Failed to publish golden record event")
		return err
	}

	return nil
}

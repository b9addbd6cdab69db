// Package kafka implements the downloads event stream producer
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/komuzik/media-bot/config"
	"github.com/komuzik/media-bot/internal/domain/bot/deps"
	"github.com/komuzik/media-bot/internal/domain/bot/dto"
)

type downloadEventProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewProducer creates a Kafka producer for download events. When the
// event stream is disabled in config a no-op producer is returned, so
// callers never have to check.
func NewProducer(cfg *config.KafkaConfig, logger zerolog.Logger) (deps.DownloadEventProducer, error) {
	if !cfg.Enabled {
		logger.Info().Msg("Kafka event stream disabled")
		return &nopProducer{}, nil
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("Kafka producer initialized successfully")

	return &downloadEventProducer{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

// SendDownloadEvent publishes a download outcome event
func (p *downloadEventProducer) SendDownloadEvent(_ context.Context, event *dto.DownloadEvent) error {
	return p.send(event.EventType, event)
}

// SendUserReport publishes a user report event
func (p *downloadEventProducer) SendUserReport(_ context.Context, event *dto.UserReportEvent) error {
	return p.send("user_report", event)
}

// Close closes the producer
func (p *downloadEventProducer) Close() error {
	return p.producer.Close()
}

func (p *downloadEventProducer) send(eventType string, event interface{}) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(eventType),
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event sent to Kafka")

	return nil
}

// nopProducer drops all events when the stream is disabled
type nopProducer struct{}

func (*nopProducer) SendDownloadEvent(context.Context, *dto.DownloadEvent) error { return nil }
func (*nopProducer) SendUserReport(context.Context, *dto.UserReportEvent) error  { return nil }
func (*nopProducer) Close() error                                                { return nil }

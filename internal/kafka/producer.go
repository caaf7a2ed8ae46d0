package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"crono/internal/config"
	"crono/internal/logger"
	"crono/internal/models"

	"github.com/IBM/sarama"
)

// Producer publishes committed queue updates to Kafka, one topic per update
// type, keyed by event id so a queue's updates stay ordered on one partition.
type Producer struct {
	prod   sarama.SyncProducer
	topics map[models.UpdateType]string
	l      logger.Logger
}

func NewSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.ProducerRequiredAcks)
	sc.Producer.Retry.Max = cfg.ProducerRetryMax
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Compression = sarama.CompressionSnappy
	return sc
}

func NewProducer(cfg config.KafkaConfig, l logger.Logger) (*Producer, error) {
	prod, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	l.Infow(context.Background(), "Kafka producer initialized", "brokers", cfg.Brokers)

	return NewProducerWith(prod, cfg, l), nil
}

// NewProducerWith wraps an existing SyncProducer.
func NewProducerWith(prod sarama.SyncProducer, cfg config.KafkaConfig, l logger.Logger) *Producer {
	return &Producer{
		prod: prod,
		topics: map[models.UpdateType]string{
			models.UpdateTypeTurnJoined:  cfg.TopicTurnJoined,
			models.UpdateTypeTurnRemoved: cfg.TopicTurnRemoved,
		},
		l: l,
	}
}

func (p *Producer) NotifyQueueUpdate(ctx context.Context, upd models.QueueUpdate) error {
	topic, ok := p.topics[upd.Type]
	if !ok || topic == "" {
		return fmt.Errorf("no kafka topic for update type %q", upd.Type)
	}

	value, err := json.Marshal(upd)
	if err != nil {
		p.l.Errorf(ctx, "kafka.Producer.NotifyQueueUpdate: %v", err)
		return err
	}

	key := strconv.FormatUint(uint64(upd.EventID), 10)
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.prod.SendMessage(msg)
	if err != nil {
		p.l.Errorw(ctx, "Failed to send kafka message", "topic", topic, "error", err)
		return fmt.Errorf("failed to send kafka message: %w", err)
	}

	p.l.Debugf(ctx, "kafka message sent topic=%s partition=%d offset=%d key=%s", topic, partition, offset, key)
	return nil
}

func (p *Producer) Close() error {
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

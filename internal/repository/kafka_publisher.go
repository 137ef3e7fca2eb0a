package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"GlobalLiquidity/internal/domain/models"
	"GlobalLiquidity/internal/domain/repository"

	"github.com/segmentio/kafka-go"
)

// producer is the part of pkg/kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...kafka.Header) error
	Close() error
}

// KafkaPublisher implements Publisher for Kafka. Each table is one JSON
// message keyed by its cache key, so a compacted topic keeps the latest
// table per parameter set.
type KafkaPublisher struct {
	producer producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(p producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) PublishTable(ctx context.Context, key string, t *models.ResultTable) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), payload,
		kafka.Header{Key: "run_id", Value: []byte(t.RunID)},
		kafka.Header{Key: "content-type", Value: []byte("application/json")},
	)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
)

const analysisEventType = "asset_analysis.v1"

type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// AnalysisEvent is the envelope written to the analysis topic.
type AnalysisEvent struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Symbol     string                `json:"symbol"`
	ProducedAt time.Time             `json:"produced_at"`
	Analysis   *models.AssetAnalysis `json:"analysis"`
}

// KafkaPublisher publishes analyses keyed by symbol.
type KafkaPublisher struct {
	producer messagePublisher
	topic    string
	now      func() time.Time
}

var _ domrepo.AnalysisPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer messagePublisher, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, a *models.AssetAnalysis) error {
	if a == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, []byte(a.Symbol), AnalysisEvent{
		ID:         uuid.NewString(),
		Type:       analysisEventType,
		Symbol:     a.Symbol,
		ProducedAt: p.now().UTC(),
		Analysis:   a,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops every analysis. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.AssetAnalysis) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

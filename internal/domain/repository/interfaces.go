package repository

import (
	"context"

	"SignalEngine/internal/domain/models"
)

// TickerStream delivers streamed 24h ticker updates.
type TickerStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickSink accepts ticks from the ingest pipeline.
type TickSink interface {
	Put(t *models.Tick)
}

// AnalysisPublisher ships finished analyses to downstream consumers.
type AnalysisPublisher interface {
	Publish(ctx context.Context, a *models.AssetAnalysis) error
	Close() error
}

type Metrics interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordCacheLoad(cache string, seconds float64, err error)
	RecordStrategyFailure(strategy string)
	RecordProviderError(provider, kind string)
	RecordAnalysis(symbol string, regime models.MarketRegime, seconds float64)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
}

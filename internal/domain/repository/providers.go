package repository

import (
	"context"

	"SignalEngine/internal/domain/models"
)

// CandleProvider returns the latest limit candles in chronological order.
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol string, tf Timeframe, limit int) ([]models.Candle, error)
}

// SnapshotProvider returns the current 24h view of a symbol.
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, symbol string) (models.PriceSnapshot, error)
}

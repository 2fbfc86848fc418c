package repository

import (
	"context"
	"time"

	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/cache"
)

// StreamSnapshotStore answers snapshot lookups from the latest streamed
// ticker and falls back to another provider when it has no fresh tick.
type StreamSnapshotStore struct {
	ticks    *cache.MemoryCache[models.PriceSnapshot]
	fallback domrepo.SnapshotProvider
	maxAge   time.Duration
}

func NewStreamSnapshotStore(fallback domrepo.SnapshotProvider, maxAge time.Duration, capacity int) *StreamSnapshotStore {
	return &StreamSnapshotStore{
		ticks:    cache.NewMemoryCache[models.PriceSnapshot](cache.WithMemoryMaxSize(capacity), cache.WithMemoryTTL(maxAge)),
		fallback: fallback,
		maxAge:   maxAge,
	}
}

// Put keeps the tick unless a newer one for the same symbol is already held.
func (s *StreamSnapshotStore) Put(t *models.Tick) {
	if t == nil {
		return
	}
	if cur, ok := s.ticks.Get(t.Symbol); ok && cur.ComputedAt.After(t.EventTime) {
		return
	}
	s.ticks.Set(t.Symbol, cache.Entry[models.PriceSnapshot]{
		Value:      t.Snapshot(),
		ComputedAt: t.EventTime,
		TTL:        s.maxAge,
	})
}

func (s *StreamSnapshotStore) GetSnapshot(ctx context.Context, symbol string) (models.PriceSnapshot, error) {
	if e, ok := s.ticks.Get(symbol); ok {
		return e.Value, nil
	}
	return s.fallback.GetSnapshot(ctx, symbol)
}

var (
	_ domrepo.TickSink         = (*StreamSnapshotStore)(nil)
	_ domrepo.SnapshotProvider = (*StreamSnapshotStore)(nil)
)

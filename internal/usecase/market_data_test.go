package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/cache"
	"SignalEngine/pkg/config"
)

type snapshotStub struct {
	calls atomic.Int64
	err   error
	delay time.Duration
}

func (s *snapshotStub) GetSnapshot(ctx context.Context, symbol string) (models.PriceSnapshot, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.PriceSnapshot{}, ctx.Err()
		}
	}
	if s.err != nil {
		return models.PriceSnapshot{}, s.err
	}
	return models.PriceSnapshot{Symbol: symbol, Price: 100}, nil
}

type candleStub struct {
	mu    sync.Mutex
	calls map[domrepo.Timeframe]int
	fail  map[domrepo.Timeframe]error
}

func (c *candleStub) GetCandles(_ context.Context, _ string, tf domrepo.Timeframe, limit int) ([]models.Candle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[domrepo.Timeframe]int{}
	}
	c.calls[tf]++
	if err := c.fail[tf]; err != nil {
		return nil, err
	}
	return patternCandles(limit, 100, 1000, 1, -0.5), nil
}

func newMarketData(s domrepo.SnapshotProvider, c domrepo.CandleProvider, timeout time.Duration) *MarketDataUseCase {
	cfg := config.Default()
	return NewMarketDataUseCase(s, c,
		cache.NewLoader[models.PriceSnapshot]("snapshot", cache.WithLayeredTTL(cfg.Cache.Snapshot.TTL)),
		cache.NewLoader[[]models.Candle]("candles", cache.WithLayeredTTL(cfg.Cache.Candles.TTL)),
		cfg.Engine, timeout, nil)
}

func TestFetchGathersAllWindows(t *testing.T) {
	snaps, candles := &snapshotStub{}, &candleStub{}
	uc := newMarketData(snaps, candles, time.Second)

	data, err := uc.Fetch(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", data.Snapshot.Symbol)
	assert.Len(t, data.Candles, 120)
	assert.Len(t, data.Long, 100)

	// Second fetch is served from the category caches.
	_, err = uc.Fetch(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(1), snaps.calls.Load())
	assert.Equal(t, 1, candles.calls[domrepo.TF1h])
	assert.Equal(t, 1, candles.calls[domrepo.TF4h])
}

func TestFetchToleratesMissingLongWindow(t *testing.T) {
	candles := &candleStub{fail: map[domrepo.Timeframe]error{
		domrepo.TF4h: &errs.DataNotAvailableError{Provider: "binance", Symbol: "BTC"},
	}}
	data, err := newMarketData(&snapshotStub{}, candles, time.Second).Fetch(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Nil(t, data.Long)
	assert.NotEmpty(t, data.Candles)
}

func TestFetchFailsFastOnRequiredSource(t *testing.T) {
	boom := &errs.RateLimitError{Provider: "binance", RetryAfter: time.Second}
	candles := &candleStub{fail: map[domrepo.Timeframe]error{domrepo.TF1h: boom}}
	_, err := newMarketData(&snapshotStub{}, candles, time.Second).Fetch(context.Background(), "BTC")
	var rl *errs.RateLimitError
	assert.ErrorAs(t, err, &rl)

	snaps := &snapshotStub{err: &errs.DataSourceError{Provider: "binance", Err: errors.New("eof")}}
	_, err = newMarketData(snaps, &candleStub{}, time.Second).Fetch(context.Background(), "BTC")
	assert.True(t, errs.IsProvider(err))
}

func TestFetchEnforcesUpstreamTimeout(t *testing.T) {
	snaps := &snapshotStub{delay: time.Second}
	start := time.Now()
	_, err := newMarketData(snaps, &candleStub{}, 30*time.Millisecond).Fetch(context.Background(), "BTC")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

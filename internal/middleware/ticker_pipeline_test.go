package middleware

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/models"
)

type sinkStub struct {
	mu    sync.Mutex
	ticks []*models.Tick
}

func (s *sinkStub) Put(t *models.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks = append(s.ticks, t)
}

type metricsStub struct {
	errors []string
	prices map[string]float64
}

func (m *metricsStub) RecordCacheHit(string)                               {}
func (m *metricsStub) RecordCacheMiss(string)                              {}
func (m *metricsStub) RecordCacheLoad(string, float64, error)              {}
func (m *metricsStub) RecordStrategyFailure(string)                        {}
func (m *metricsStub) RecordProviderError(string, string)                  {}
func (m *metricsStub) RecordAnalysis(string, models.MarketRegime, float64) {}
func (m *metricsStub) RecordError(kind string)                             { m.errors = append(m.errors, kind) }
func (m *metricsStub) RecordLastPrice(s string, p float64) {
	if m.prices == nil {
		m.prices = map[string]float64{}
	}
	m.prices[s] = p
}

func tick(sym string, px float64) *models.Tick {
	return &models.Tick{Symbol: sym, Close: px, Open: px, High: px, Low: px, Volume: 10, EventTime: time.Unix(1700000000, 0)}
}

func TestPipelineForwardsAndStripsQuote(t *testing.T) {
	sink, m := &sinkStub{}, &metricsStub{}
	p := NewTickerPipeline(sink, m, WithQuoteAsset("usdt"))

	require.NoError(t, p.Process(context.Background(), tick("BTCUSDT", 50000)))
	require.Len(t, sink.ticks, 1)
	assert.Equal(t, "BTC", sink.ticks[0].Symbol)
	assert.Equal(t, 50000.0, m.prices["BTC"])

	// A bare quote asset is left alone.
	require.NoError(t, p.Process(context.Background(), tick("USDT", 1)))
	assert.Equal(t, "USDT", sink.ticks[1].Symbol)
}

func TestPipelineRejectsInvalidTicks(t *testing.T) {
	sink, m := &sinkStub{}, &metricsStub{}
	p := NewTickerPipeline(sink, m)

	bad := []*models.Tick{
		nil,
		tick("", 1),
		tick("BTC", 0),
		tick("BTC", math.NaN()),
		{Symbol: "BTC", Close: 1},
	}
	for _, b := range bad {
		assert.Error(t, p.Process(context.Background(), b))
	}
	assert.Empty(t, sink.ticks)
	assert.Len(t, m.errors, len(bad))
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	sink, m := &sinkStub{}, &metricsStub{}
	p := NewTickerPipeline(sink, m, WithMaxRPS(2))
	now := time.Unix(1700000000, 0)
	p.now = func() time.Time { return now }

	require.NoError(t, p.Process(context.Background(), tick("BTC", 1)))
	require.NoError(t, p.Process(context.Background(), tick("BTC", 2)))
	require.NoError(t, p.Process(context.Background(), tick("ETH", 3)))
	assert.Len(t, sink.ticks, 2)
	assert.Contains(t, m.errors, "pipeline_throttle")

	now = now.Add(500 * time.Millisecond)
	require.NoError(t, p.Process(context.Background(), tick("BTC", 4)))
	assert.Len(t, sink.ticks, 3)
}

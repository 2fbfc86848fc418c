package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/services/analytics"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/internal/services/strategy"
	"SignalEngine/pkg/config"
)

func newAnalyzer() *Analyzer {
	cfg := config.Default().Engine
	calc := indicators.NewCalculator(cfg.Indicators)
	exec := strategy.NewExecutor(
		analytics.NewRegimeClassifier(cfg.Regime),
		strategy.Registry(calc, cfg.Strategy),
		calc, cfg.Strategy, nil, nil,
	)
	return NewAnalyzer(calc, exec,
		analytics.NewCrashDetector(cfg.Crash, cfg.Indicators),
		analytics.NewEntryGenerator(cfg.Entry, cfg.Indicators),
		cfg.Crash)
}

// patternCandles walks the close through steps repeatedly.
func patternCandles(n int, start, volume float64, steps ...float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	for i := range out {
		open := price
		price += steps[i%len(steps)]
		out[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   open,
			High:   max(open, price) * 1.002,
			Low:    min(open, price) * 0.998,
			Close:  price,
			Volume: volume,
		}
	}
	return out
}

func snapshotFor(candles []models.Candle, change, spreadPct float64) models.PriceSnapshot {
	price := candles[len(candles)-1].Close
	half := price * spreadPct / 200
	return models.PriceSnapshot{
		Symbol: "BTC", Price: price, Change24h: change,
		High24h: price + half, Low24h: price - half, Volume24h: 1e6,
	}
}

// stubFetcher counts fetches and serves a fixed market.
type stubFetcher struct {
	calls atomic.Int64
	mu    sync.Mutex
	data  models.MarketData
	err   error
	block chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, symbol string) (models.MarketData, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.MarketData{}, f.err
	}
	d := f.data
	d.Snapshot.Symbol = symbol
	return d, nil
}

func (f *stubFetcher) set(d models.MarketData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = d
}

type publisherStub struct {
	mu   sync.Mutex
	sent []*models.AssetAnalysis
	err  error
}

func (p *publisherStub) Publish(_ context.Context, a *models.AssetAnalysis) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, a)
	return p.err
}

func (p *publisherStub) Close() error { return nil }

func (p *publisherStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func rallyMarket() models.MarketData {
	candles := patternCandles(123, 100, 1000, 3, 3, 3, -2)
	return models.MarketData{Snapshot: snapshotFor(candles, 15, 20), Candles: candles}
}

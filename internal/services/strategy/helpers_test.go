package strategy

import (
	"sync"

	"SignalEngine/internal/domain/models"
)

func trendCandles(n int, start, step, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	for i := range out {
		open := price
		price += step
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

func marketData(candles []models.Candle, change float64) models.MarketData {
	last := candles[len(candles)-1].Close
	return models.MarketData{
		Snapshot: models.PriceSnapshot{
			Symbol: "BTC", Price: last, Change24h: change,
			High24h: last * 1.03, Low24h: last * 0.97, Volume24h: 1e6,
		},
		Candles: candles,
	}
}

type fixedClassifier struct{ regime models.MarketRegime }

func (c fixedClassifier) Classify(models.RegimeInput) models.MarketRegime { return c.regime }

type fakeStrategy struct {
	name     string
	affinity []models.MarketRegime
	signal   models.Signal
	conf     float64
	err      error
	panics   bool
}

func (f *fakeStrategy) Name() string                     { return f.name }
func (f *fakeStrategy) Affinity() []models.MarketRegime { return f.affinity }

func (f *fakeStrategy) Evaluate(models.MarketData) (models.StrategySignal, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return models.StrategySignal{}, f.err
	}
	return models.StrategySignal{Strategy: f.name, Signal: f.signal, Confidence: f.conf}, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	failures []string
}

func (m *recordingMetrics) RecordCacheHit(string)                   {}
func (m *recordingMetrics) RecordCacheMiss(string)                  {}
func (m *recordingMetrics) RecordCacheLoad(string, float64, error)  {}
func (m *recordingMetrics) RecordProviderError(string, string)      {}
func (m *recordingMetrics) RecordAnalysis(string, models.MarketRegime, float64) {}
func (m *recordingMetrics) RecordLastPrice(string, float64)         {}
func (m *recordingMetrics) RecordError(string)                      {}

func (m *recordingMetrics) RecordStrategyFailure(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, name)
}

package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/services/analytics"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/pkg/config"
)

func newExecutor(regime models.MarketRegime, m *recordingMetrics, strategies ...domsvc.Strategy) *Executor {
	cfg := config.Default()
	ex := NewExecutor(fixedClassifier{regime}, strategies, indicators.NewCalculator(cfg.Engine.Indicators), cfg.Engine.Strategy, nil, nil)
	if m != nil {
		ex.metrics = m
	}
	return ex
}

var sideways = []models.MarketRegime{models.Sideways}
var bull = []models.MarketRegime{models.BullMarket}

func TestExecutorPrefersAffineStrategy(t *testing.T) {
	ex := newExecutor(models.Sideways, nil,
		&fakeStrategy{name: "A", affinity: bull, signal: models.Buy, conf: 90},
		&fakeStrategy{name: "B", affinity: sideways, signal: models.Sell, conf: 40},
		&fakeStrategy{name: "C", affinity: sideways, signal: models.Sell, conf: 35},
	)
	res := ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	assert.Equal(t, models.Sideways, res.Regime)
	assert.Equal(t, "B", res.PrimarySignal.Strategy)
	assert.Len(t, res.Signals, 3)
	assert.False(t, res.Degraded())
}

func TestExecutorFallsBackToHighestConfidence(t *testing.T) {
	ex := newExecutor(models.HighVolatility, nil,
		&fakeStrategy{name: "A", affinity: bull, signal: models.Buy, conf: 55},
		&fakeStrategy{name: "B", affinity: sideways, signal: models.Sell, conf: 70},
	)
	res := ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	assert.Equal(t, "B", res.PrimarySignal.Strategy)
}

func TestExecutorTiesKeepRegistryOrder(t *testing.T) {
	ex := newExecutor(models.Sideways, nil,
		&fakeStrategy{name: "A", affinity: sideways, signal: models.Buy, conf: 50},
		&fakeStrategy{name: "B", affinity: sideways, signal: models.Sell, conf: 50},
	)
	res := ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	assert.Equal(t, "A", res.PrimarySignal.Strategy)
}

func TestExecutorOverallConfidence(t *testing.T) {
	ex := newExecutor(models.BullMarket, nil,
		&fakeStrategy{name: "A", affinity: bull, signal: models.Buy, conf: 80},
		&fakeStrategy{name: "B", affinity: bull, signal: models.StrongBuy, conf: 60},
	)
	res := ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	// 0.6*80 + 0.4*100
	assert.InDelta(t, 88.0, res.OverallConfidence, 1e-9)

	ex = newExecutor(models.BullMarket, nil,
		&fakeStrategy{name: "A", affinity: bull, signal: models.Buy, conf: 80},
		&fakeStrategy{name: "B", affinity: bull, signal: models.Sell, conf: 60},
	)
	res = ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	// 0.6*80 + 0.4*50
	assert.InDelta(t, 68.0, res.OverallConfidence, 1e-9)
}

func TestExecutorExcludesFailingStrategies(t *testing.T) {
	m := &recordingMetrics{}
	ex := newExecutor(models.Sideways, m,
		&fakeStrategy{name: "A", affinity: sideways, err: errs.NewInsufficientData("a", 50, 10)},
		&fakeStrategy{name: "B", affinity: sideways, signal: models.Hold, conf: 30},
		&fakeStrategy{name: "C", affinity: sideways, panics: true},
	)
	res := ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	assert.True(t, res.Degraded())
	assert.Equal(t, []string{"A", "C"}, res.Excluded)
	assert.Equal(t, []string{"A", "C"}, m.failures)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, "B", res.PrimarySignal.Strategy)
}

func TestExecutorAllStrategiesFail(t *testing.T) {
	ex := newExecutor(models.Sideways, nil,
		&fakeStrategy{name: "A", err: errors.New("no data")},
		&fakeStrategy{name: "B", err: errs.NewInsufficientData("b", 50, 3)},
	)
	res := ex.Execute(marketData(trendCandles(60, 100, 0.1, 1000), 0))
	assert.Empty(t, res.Signals)
	assert.Equal(t, models.Hold, res.PrimarySignal.Signal)
	assert.Zero(t, res.PrimarySignal.Confidence)
	assert.Zero(t, res.OverallConfidence)
	assert.Contains(t, res.PrimarySignal.Reasoning, "no data")
	assert.ElementsMatch(t, []string{"A", "B"}, res.Excluded)
}

func TestExecutorRiskFollowsRegimeAndDisagreement(t *testing.T) {
	data := marketData(trendCandles(60, 100, 0.1, 1000), 0)
	agree := func(regime models.MarketRegime) float64 {
		return newExecutor(regime, nil,
			&fakeStrategy{name: "A", signal: models.Buy, conf: 60},
			&fakeStrategy{name: "B", signal: models.Buy, conf: 60},
		).Execute(data).RiskScore
	}
	assert.Greater(t, agree(models.HighVolatility), agree(models.BullMarket))
	assert.Greater(t, agree(models.BullMarket), agree(models.LowVolatility))

	split := newExecutor(models.BullMarket, nil,
		&fakeStrategy{name: "A", signal: models.Buy, conf: 60},
		&fakeStrategy{name: "B", signal: models.Sell, conf: 60},
	).Execute(data).RiskScore
	assert.Greater(t, split, agree(models.BullMarket))
}

func TestExecutorRiskIsBounded(t *testing.T) {
	candles := trendCandles(60, 100, 0, 1000)
	for i := range candles {
		candles[i].High = candles[i].Close * 1.5
		candles[i].Low = candles[i].Close * 0.5
	}
	res := newExecutor(models.HighVolatility, nil,
		&fakeStrategy{name: "A", signal: models.Buy, conf: 60},
		&fakeStrategy{name: "B", signal: models.Sell, conf: 60},
	).Execute(marketData(candles, 0))
	assert.Equal(t, 100.0, res.RiskScore)
}

func TestExecutorWithRealRegistry(t *testing.T) {
	cfg := config.Default()
	calc := indicators.NewCalculator(cfg.Engine.Indicators)
	ex := NewExecutor(analytics.NewRegimeClassifier(cfg.Engine.Regime), Registry(calc, cfg.Engine.Strategy), calc, cfg.Engine.Strategy, nil, nil)

	data := marketData(trendCandles(120, 100, 1, 1000), 15)
	data.Snapshot.High24h = data.Snapshot.Price * 1.1
	data.Snapshot.Low24h = data.Snapshot.Price * 0.9
	res := ex.Execute(data)
	assert.Equal(t, models.HighVolatility, res.Regime)
	assert.Len(t, res.Signals, 5)
	assert.Equal(t, NameBreakout, res.PrimarySignal.Strategy)
	assert.Greater(t, res.RiskScore, 50.0)
	assert.Equal(t, []string{NameMomentum, NameMeanReversion, NameBreakout, NameTrendFollowing, NameOscillator}, ex.Strategies())
}

func TestRegimeInputFallsBackToPrimaryWindow(t *testing.T) {
	ex := newExecutor(models.Sideways, nil)
	data := marketData(trendCandles(60, 100, 1, 1000), 0)
	in := ex.RegimeInput(data)
	require.NotNil(t, in.ADX)
	require.NotNil(t, in.ATRPct)
	require.NotNil(t, in.RSI)
	require.NotNil(t, in.MACDHist)
	require.NotNil(t, in.PriceVsEMA)

	data.Long = trendCandles(60, 100, -1, 1000)
	long := ex.RegimeInput(data)
	assert.NotEqual(t, *in.ATRPct, *long.ATRPct)
}

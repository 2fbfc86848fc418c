package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
)

func TestAnalyzeRallyScenario(t *testing.T) {
	data := rallyMarket()
	a, err := newAnalyzer().AnalyzeData("btc", data)
	require.NoError(t, err)

	assert.Equal(t, "BTC", a.Symbol)
	require.NotNil(t, a.Indicators.RSI)
	assert.InDelta(t, 82, a.Indicators.RSI.Value, 6)
	assert.Contains(t, []models.MarketRegime{models.BullMarket, models.HighVolatility}, a.Strategy.Regime)
	assert.True(t, a.OverallSignal.IsBullish(), a.OverallSignal)
	assert.Greater(t, a.RiskScore, 50.0)
	assert.False(t, a.Crash.IsCrashing)
	assert.NotEmpty(t, a.Recommendation)
	assert.Contains(t, a.Recommendation, "BTC")
}

func TestAnalyzeCrashScenario(t *testing.T) {
	candles := patternCandles(120, 500, 1000, -3, -3, -3, 1)
	candles[len(candles)-1].Volume = 3000
	data := models.MarketData{Snapshot: snapshotFor(candles, -15, 20), Candles: candles}

	a, err := newAnalyzer().AnalyzeData("BTC", data)
	require.NoError(t, err)

	assert.True(t, a.Crash.IsCrashing)
	assert.Contains(t, []models.Severity{models.SeverityHigh, models.SeverityExtreme}, a.Crash.Severity)
	assert.False(t, a.OverallSignal.IsBullish(), a.OverallSignal)
	assert.GreaterOrEqual(t, a.RiskScore, 80.0)
	assert.LessOrEqual(t, a.Confidence, a.Strategy.OverallConfidence*0.5+0.01)
	assert.Contains(t, a.Recommendation, "Crash warning")
}

func TestAnalyzeCrashOverridesBullishPrimary(t *testing.T) {
	an := newAnalyzer()
	an.executor = fixedRunner{models.StrategyResult{
		Regime:            models.HighVolatility,
		Signals:           []models.StrategySignal{{Strategy: "BREAKOUT", Signal: models.StrongBuy, Confidence: 90}},
		PrimarySignal:     models.StrategySignal{Strategy: "BREAKOUT", Signal: models.StrongBuy, Confidence: 90},
		OverallConfidence: 80,
		RiskScore:         40,
	}}
	candles := patternCandles(120, 500, 1000, -3, -3, -3, 1)
	candles[len(candles)-1].Volume = 3000

	a, err := an.Analyze("BTC", snapshotFor(candles, -25, 30), candles)
	require.NoError(t, err)
	require.True(t, a.Crash.IsCrashing)
	assert.Equal(t, models.Hold, a.OverallSignal)
	assert.Equal(t, 40.0, a.Confidence)
	assert.GreaterOrEqual(t, a.RiskScore, 80.0)
}

func TestAnalyzeFlatScenario(t *testing.T) {
	candles := patternCandles(120, 100, 1000, 0.2, -0.2)
	a, err := newAnalyzer().Analyze("ETH", snapshotFor(candles, 0.1, 1), candles)
	require.NoError(t, err)

	assert.Contains(t, []models.MarketRegime{models.Sideways, models.LowVolatility, models.MeanReversion}, a.Strategy.Regime)
	assert.False(t, a.Crash.IsCrashing)
	if a.Entry.IsOptimalEntry {
		assert.GreaterOrEqual(t, a.Entry.RiskReward, 1.5)
	}
}

func TestAnalyzeAllStrategiesFail(t *testing.T) {
	candles := patternCandles(10, 100, 1000, 1)
	_, err := newAnalyzer().Analyze("BTC", snapshotFor(candles, 1, 5), candles)
	require.Error(t, err)

	var ae *errs.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "BTC", ae.Symbol)
	assert.True(t, errors.Is(err, errs.ErrNoStrategies))
}

func TestAnalyzeDegradedStillReturns(t *testing.T) {
	// Long enough for most strategies but not the 50-bar trend stack.
	candles := patternCandles(40, 100, 1000, 1, -0.5)
	a, err := newAnalyzer().Analyze("BTC", snapshotFor(candles, 1, 5), candles)
	require.NoError(t, err)
	assert.True(t, a.Strategy.Degraded())
	assert.Contains(t, a.Strategy.Excluded, "TREND_FOLLOWING")
	assert.Contains(t, a.Recommendation, "Excluded")
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	candles := patternCandles(120, 100, 1000, 1)
	an := newAnalyzer()

	_, err := an.Analyze("  ", snapshotFor(candles, 1, 5), candles)
	var ve *errs.ValidationError
	assert.ErrorAs(t, err, &ve)

	snap := snapshotFor(candles, 1, 5)
	snap.Price = 0
	_, err = an.Analyze("BTC", snap, candles)
	assert.ErrorAs(t, err, &ve)
	var ae *errs.AnalysisError
	assert.ErrorAs(t, err, &ae)

	bad := append([]models.Candle(nil), candles...)
	bad[5].Close = -1
	_, err = an.Analyze("BTC", snapshotFor(candles, 1, 5), bad)
	var ie *errs.InvalidDataError
	assert.ErrorAs(t, err, &ie)
}

func TestDominantIndicators(t *testing.T) {
	set := models.IndicatorSet{
		RSI:  &models.IndicatorResult{Name: "RSI", Signal: models.Buy, Confidence: 40},
		MACD: &models.IndicatorResult{Name: "MACD", Signal: models.StrongBuy, Confidence: 70},
		ADX:  &models.IndicatorResult{Name: "ADX", Signal: models.Sell, Confidence: 90},
		AO:   &models.IndicatorResult{Name: "AO", Signal: models.Buy, Confidence: 55},
	}
	assert.Equal(t, []string{"MACD STRONG_BUY", "AO BUY"}, dominantIndicators(set, models.Buy))
	assert.Empty(t, dominantIndicators(set, models.Hold))
}

type fixedRunner struct{ res models.StrategyResult }

func (f fixedRunner) Execute(models.MarketData) models.StrategyResult { return f.res }

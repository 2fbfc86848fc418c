package indicators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/services/features"
	"SignalEngine/pkg/config"
)

func TestRSIFlatWindowIsNeutral(t *testing.T) {
	rsi, err := RSI(features.Closes(flatCandles(30, 100)), 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi)
}

func TestRSIExtremes(t *testing.T) {
	up, err := RSI(features.Closes(trendCandles(40, 100, 1)), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, up)

	down, err := RSI(features.Closes(trendCandles(40, 100, -1)), 14)
	require.NoError(t, err)
	assert.Equal(t, 0.0, down)
}

func TestRSIDeterministic(t *testing.T) {
	closes := features.Closes(randomCandles(200, 7))
	a, err := RSI(closes, 14)
	require.NoError(t, err)
	b, err := RSI(closes, 14)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0.0)
	assert.LessOrEqual(t, a, 100.0)
}

// Wilder's RSI only reads price differences, so shifting every price by a
// constant leaves it unchanged up to floating point error.
func TestRSIShiftInvariance(t *testing.T) {
	closes := features.Closes(randomCandles(120, 11))
	shifted := make([]float64, len(closes))
	for i, c := range closes {
		shifted[i] = c + 250
	}
	a, err := RSI(closes, 14)
	require.NoError(t, err)
	b, err := RSI(shifted, 14)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 1e-9)
}

func TestRSIInsufficientData(t *testing.T) {
	_, err := RSI([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 14)
	var ide *errs.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 15, ide.Required)
	assert.Equal(t, 10, ide.Actual)
}

func TestMovingAveragePeriodValidation(t *testing.T) {
	_, err := SMA([]float64{1, 2, 3}, 1)
	var ve *errs.ValidationError
	assert.True(t, errors.As(err, &ve))

	s, err := SMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, s[3], 1e-9)
}

func TestMACDMinimumLength(t *testing.T) {
	closes := features.Closes(randomCandles(34, 3))
	_, err := MACD(closes, 12, 26, 9)
	require.NoError(t, err)

	_, err = MACD(closes[:33], 12, 26, 9)
	var ide *errs.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 34, ide.Required)
}

func TestMACDTrendFollowsDirection(t *testing.T) {
	up, err := MACD(features.Closes(trendCandles(80, 100, 0.5)), 12, 26, 9)
	require.NoError(t, err)
	assert.Greater(t, up.MACD, 0.0)

	down, err := MACD(features.Closes(trendCandles(80, 100, -0.5)), 12, 26, 9)
	require.NoError(t, err)
	assert.Less(t, down.MACD, 0.0)
}

func TestBollingerPercentBIsNotClamped(t *testing.T) {
	closes := features.Closes(randomCandles(40, 5))
	closes = append(closes, closes[len(closes)-1]*1.3)
	r, err := Bollinger(closes, 20, 2)
	require.NoError(t, err)
	assert.Greater(t, r.PercentB, 1.0)
}

func TestBollingerFlatBands(t *testing.T) {
	r, err := Bollinger(features.Closes(flatCandles(25, 10)), 20, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.5, r.PercentB)
}

func TestStochasticFlatWindow(t *testing.T) {
	c := flatCandles(30, 10)
	r, err := Stochastic(features.Highs(c), features.Lows(c), features.Closes(c), 14, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, StochasticResult{K: 50, D: 50}, r)
}

func TestATRNormalized(t *testing.T) {
	c := randomCandles(60, 9)
	r, err := ATR(features.Highs(c), features.Lows(c), features.Closes(c), 14)
	require.NoError(t, err)
	assert.Greater(t, r.ATR, 0.0)
	assert.InDelta(t, r.ATR/c[len(c)-1].Close*100, r.Percent, 1e-9)
}

func TestATRZeroClose(t *testing.T) {
	c := randomCandles(20, 9)
	c[len(c)-1].Close = 0
	_, err := ATR(features.Highs(c), features.Lows(c), features.Closes(c), 14)
	var ce *errs.CalculationError
	assert.True(t, errors.As(err, &ce))
}

func TestCrossover(t *testing.T) {
	tests := []struct {
		name                       string
		prev, prevSig, curr, currS float64
		want                       Cross
	}{
		{"bullish from equal", 1, 1, 2, 1.5, CrossBullish},
		{"bullish from below", 0.5, 1, 2, 1.5, CrossBullish},
		{"bearish", 2, 1, 0.5, 1, CrossBearish},
		{"stays above", 2, 1, 3, 1, CrossNone},
		{"stays below", 0, 1, 0.5, 1, CrossNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Crossover(tt.prev, tt.prevSig, tt.curr, tt.currS))
		})
	}
}

func TestRVIAndAOMinimumLength(t *testing.T) {
	_, err := RVI(randomCandles(16, 1), 10)
	assert.Error(t, err)
	_, err = RVI(randomCandles(17, 1), 10)
	assert.NoError(t, err)

	_, err = AwesomeOscillator(randomCandles(37, 1), 5, 34)
	assert.Error(t, err)
	_, err = AwesomeOscillator(randomCandles(38, 1), 5, 34)
	assert.NoError(t, err)
}

func TestVolumeRatio(t *testing.T) {
	vols := []float64{10, 10, 10, 10, 30}
	r, err := VolumeRatio(vols, 4)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, r, 1e-9)

	_, err = VolumeRatio([]float64{0, 0, 0, 5}, 3)
	var ce *errs.CalculationError
	assert.True(t, errors.As(err, &ce))
}

func TestValidateSeries(t *testing.T) {
	assert.NoError(t, ValidateSeries("close", []float64{1, 2, 3}))

	err := ValidateSeries("close", []float64{1, math.NaN(), 3})
	var ide *errs.InvalidDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 1, ide.Index)

	assert.Error(t, ValidateSeries("volume", []float64{1, -2}))
	assert.Error(t, ValidateSeries("high", []float64{math.Inf(1)}))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, Round(1.235, 2))
	assert.Equal(t, -1.24, Round(-1.235, 2))
	assert.Equal(t, 70.0, Round(69.996, 2))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestComputeClassificationsInRange(t *testing.T) {
	calc := NewCalculator(config.Default().Engine.Indicators)
	windows := map[string][]models.Candle{
		"up":     trendCandles(150, 100, 0.8),
		"down":   trendCandles(150, 200, -0.8),
		"random": randomCandles(150, 21),
		"flat":   flatCandles(150, 50),
	}
	for name, w := range windows {
		t.Run(name, func(t *testing.T) {
			set := calc.Compute(w)
			results := []*models.IndicatorResult{
				set.RSI, set.MACD, set.Bollinger, set.Stochastic, set.RVI,
				set.AO, set.ATR, set.ADX, set.SMA, set.EMA,
			}
			for _, r := range results {
				require.NotNil(t, r)
				assert.True(t, r.Signal.Valid(), "%s signal %q", r.Name, r.Signal)
				assert.GreaterOrEqual(t, r.Confidence, 0.0, r.Name)
				assert.LessOrEqual(t, r.Confidence, 100.0, r.Name)
			}
		})
	}
}

func TestComputeShortWindowLeavesNil(t *testing.T) {
	calc := NewCalculator(config.Default().Engine.Indicators)
	set := calc.Compute(randomCandles(20, 2))
	assert.NotNil(t, set.RSI)
	assert.Nil(t, set.MACD)
	assert.Nil(t, set.AO)
	assert.Nil(t, set.ADX)
}

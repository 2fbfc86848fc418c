package indicators

import (
	talib "github.com/markcheno/go-talib"

	"SignalEngine/internal/services/features"
)

type StochasticResult struct {
	K float64
	D float64
}

// Stochastic computes the slow stochastic oscillator. It needs
// k+slowK+d-2 candles. A window whose high equals its low yields 50/50.
func Stochastic(highs, lows, closes []float64, k, slowK, d int) (StochasticResult, error) {
	if err := requirePeriod("stochastic", k); err != nil {
		return StochasticResult{}, err
	}
	if err := sameLength("stochastic", highs, lows, closes); err != nil {
		return StochasticResult{}, err
	}
	if slowK < 1 {
		slowK = 1
	}
	if d < 1 {
		d = 1
	}
	need := k + slowK + d - 2
	if err := requireLen("stochastic", need, len(closes)); err != nil {
		return StochasticResult{}, err
	}

	lo, _ := features.MinMax(lows[len(lows)-need:])
	_, hi := features.MinMax(highs[len(highs)-need:])
	if hi == lo {
		return StochasticResult{K: 50, D: 50}, nil
	}

	slowKs, slowDs := talib.Stoch(highs, lows, closes, k, slowK, talib.SMA, d, talib.SMA)
	return StochasticResult{K: last(slowKs), D: last(slowDs)}, nil
}

package indicators

import (
	talib "github.com/markcheno/go-talib"

	"SignalEngine/internal/domain/errs"
)

type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
	// Histograms is the defined part of the histogram series, oldest first.
	Histograms []float64
}

// Trend is the sign of the histogram.
func (r MACDResult) Trend() int {
	switch {
	case r.Histogram > 0:
		return 1
	case r.Histogram < 0:
		return -1
	}
	return 0
}

// MACD needs at least slow+signal-1 points.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if err := requirePeriod("macd", fast); err != nil {
		return MACDResult{}, err
	}
	if err := requirePeriod("macd", signal); err != nil {
		return MACDResult{}, err
	}
	if slow <= fast {
		return MACDResult{}, errs.NewValidation("macd", "slow period %d must exceed fast period %d", slow, fast)
	}
	lookback := slow - 1 + signal - 1
	if err := requireLen("macd", lookback+1, len(closes)); err != nil {
		return MACDResult{}, err
	}

	macd, sig, hist := talib.Macd(closes, fast, slow, signal)
	return MACDResult{
		MACD:       last(macd),
		Signal:     last(sig),
		Histogram:  last(hist),
		Histograms: hist[lookback:],
	}, nil
}

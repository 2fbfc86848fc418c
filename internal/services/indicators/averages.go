package indicators

import (
	talib "github.com/markcheno/go-talib"
)

// SMA returns the simple moving average series. Entries before index
// period-1 are zero.
func SMA(xs []float64, period int) ([]float64, error) {
	if err := requirePeriod("sma", period); err != nil {
		return nil, err
	}
	if err := requireLen("sma", period, len(xs)); err != nil {
		return nil, err
	}
	return talib.Sma(xs, period), nil
}

// EMA returns the exponential moving average series seeded with an SMA.
// Entries before index period-1 are zero.
func EMA(xs []float64, period int) ([]float64, error) {
	if err := requirePeriod("ema", period); err != nil {
		return nil, err
	}
	if err := requireLen("ema", period, len(xs)); err != nil {
		return nil, err
	}
	return talib.Ema(xs, period), nil
}

// LastSMA returns the latest simple moving average value.
func LastSMA(xs []float64, period int) (float64, error) {
	s, err := SMA(xs, period)
	if err != nil {
		return 0, err
	}
	return last(s), nil
}

// LastEMA returns the latest exponential moving average value.
func LastEMA(xs []float64, period int) (float64, error) {
	s, err := EMA(xs, period)
	if err != nil {
		return 0, err
	}
	return last(s), nil
}

// symmetricWeighted applies the (1,2,2,1)/6 kernel ending at index i.
func symmetricWeighted(xs []float64, i int) float64 {
	return (xs[i] + 2*xs[i-1] + 2*xs[i-2] + xs[i-3]) / 6
}

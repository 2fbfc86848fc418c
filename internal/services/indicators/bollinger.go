package indicators

import (
	talib "github.com/markcheno/go-talib"
)

type BollingerResult struct {
	Upper  float64
	Middle float64
	Lower  float64
	// PercentB is (price-lower)/(upper-lower). It is not clamped and may
	// leave [0,1]; flat bands yield 0.5.
	PercentB float64
	// WidthPct is the band width as a percentage of the middle band.
	WidthPct float64
}

// Bollinger computes bands of k standard deviations around an SMA.
func Bollinger(closes []float64, period int, k float64) (BollingerResult, error) {
	if err := requirePeriod("bollinger", period); err != nil {
		return BollingerResult{}, err
	}
	if err := requireLen("bollinger", period, len(closes)); err != nil {
		return BollingerResult{}, err
	}

	upper, middle, lower := talib.BBands(closes, period, k, k, talib.SMA)
	r := BollingerResult{Upper: last(upper), Middle: last(middle), Lower: last(lower)}
	price := last(closes)
	width := r.Upper - r.Lower
	if width <= 0 {
		r.PercentB = 0.5
	} else {
		r.PercentB = (price - r.Lower) / width
	}
	if r.Middle > 0 {
		r.WidthPct = width / r.Middle * 100
	}
	return r, nil
}

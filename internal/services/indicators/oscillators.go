package indicators

import (
	talib "github.com/markcheno/go-talib"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/services/features"
)

// Cross classifies an oscillator against its signal line.
type Cross int

const (
	CrossNone Cross = iota
	CrossBullish
	CrossBearish
)

func (c Cross) String() string {
	switch c {
	case CrossBullish:
		return "bullish"
	case CrossBearish:
		return "bearish"
	}
	return "none"
}

// Crossover compares two consecutive samples of an oscillator and its signal.
func Crossover(prev, prevSignal, curr, currSignal float64) Cross {
	switch {
	case prev <= prevSignal && curr > currSignal:
		return CrossBullish
	case prev >= prevSignal && curr < currSignal:
		return CrossBearish
	}
	return CrossNone
}

// OscillatorResult holds the last two samples of an oscillator and of its
// (1,2,2,1)/6 signal line.
type OscillatorResult struct {
	Value      float64
	Signal     float64
	PrevValue  float64
	PrevSignal float64
	Cross      Cross
}

func newOscillatorResult(series []float64) OscillatorResult {
	n := len(series) - 1
	r := OscillatorResult{
		Value:      series[n],
		PrevValue:  series[n-1],
		Signal:     symmetricWeighted(series, n),
		PrevSignal: symmetricWeighted(series, n-1),
	}
	r.Cross = Crossover(r.PrevValue, r.PrevSignal, r.Value, r.Signal)
	return r
}

// RVI computes the Relative Vigor Index. Numerator and denominator are
// smoothed with the symmetric kernel and averaged over period; the signal
// line is the kernel applied to RVI itself. It needs period+7 candles.
func RVI(candles []models.Candle, period int) (OscillatorResult, error) {
	if err := requirePeriod("rvi", period); err != nil {
		return OscillatorResult{}, err
	}
	if err := requireLen("rvi", period+7, len(candles)); err != nil {
		return OscillatorResult{}, err
	}

	co := make([]float64, len(candles))
	hl := make([]float64, len(candles))
	for i, c := range candles {
		co[i] = c.Close - c.Open
		hl[i] = c.High - c.Low
	}

	num := make([]float64, 0, len(candles)-3)
	den := make([]float64, 0, len(candles)-3)
	for i := 3; i < len(candles); i++ {
		num = append(num, symmetricWeighted(co, i))
		den = append(den, symmetricWeighted(hl, i))
	}

	rvi := make([]float64, 0, len(num)-period+1)
	for i := period - 1; i < len(num); i++ {
		n := features.Mean(num[i-period+1 : i+1])
		d := features.Mean(den[i-period+1 : i+1])
		if d == 0 {
			rvi = append(rvi, 0)
			continue
		}
		rvi = append(rvi, n/d)
	}
	return newOscillatorResult(rvi), nil
}

// AwesomeOscillator is SMA(median, fast) - SMA(median, slow) with a
// symmetric-kernel signal line. It needs slow+4 candles.
func AwesomeOscillator(candles []models.Candle, fast, slow int) (OscillatorResult, error) {
	if err := requirePeriod("ao", fast); err != nil {
		return OscillatorResult{}, err
	}
	if slow <= fast {
		return OscillatorResult{}, errs.NewValidation("ao", "slow period %d must exceed fast period %d", slow, fast)
	}
	if err := requireLen("ao", slow+4, len(candles)); err != nil {
		return OscillatorResult{}, err
	}

	medians := features.Medians(candles)
	fastMA := talib.Sma(medians, fast)
	slowMA := talib.Sma(medians, slow)
	ao := make([]float64, 0, len(medians)-slow+1)
	for i := slow - 1; i < len(medians); i++ {
		ao = append(ao, fastMA[i]-slowMA[i])
	}
	return newOscillatorResult(ao), nil
}

package indicators

import (
	"errors"

	talib "github.com/markcheno/go-talib"

	"SignalEngine/internal/domain/errs"
)

type ATRResult struct {
	ATR float64
	// Percent is ATR normalized by the last close.
	Percent float64
}

// ATR needs period+1 candles.
func ATR(highs, lows, closes []float64, period int) (ATRResult, error) {
	if err := requirePeriod("atr", period); err != nil {
		return ATRResult{}, err
	}
	if err := sameLength("atr", highs, lows, closes); err != nil {
		return ATRResult{}, err
	}
	if err := requireLen("atr", period+1, len(closes)); err != nil {
		return ATRResult{}, err
	}

	atr := last(talib.Atr(highs, lows, closes, period))
	price := last(closes)
	if price <= 0 {
		return ATRResult{}, &errs.CalculationError{Op: "atr", Err: errors.New("normalizing by a zero close")}
	}
	return ATRResult{ATR: atr, Percent: atr / price * 100}, nil
}

type ADXResult struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// Direction is +1 when +DI leads, -1 when -DI leads.
func (r ADXResult) Direction() int {
	switch {
	case r.PlusDI > r.MinusDI:
		return 1
	case r.MinusDI > r.PlusDI:
		return -1
	}
	return 0
}

// ADX needs 2*period candles.
func ADX(highs, lows, closes []float64, period int) (ADXResult, error) {
	if err := requirePeriod("adx", period); err != nil {
		return ADXResult{}, err
	}
	if err := sameLength("adx", highs, lows, closes); err != nil {
		return ADXResult{}, err
	}
	if err := requireLen("adx", 2*period, len(closes)); err != nil {
		return ADXResult{}, err
	}
	return ADXResult{
		ADX:     last(talib.Adx(highs, lows, closes, period)),
		PlusDI:  last(talib.PlusDI(highs, lows, closes, period)),
		MinusDI: last(talib.MinusDI(highs, lows, closes, period)),
	}, nil
}

func sameLength(op string, series ...[]float64) error {
	for _, s := range series[1:] {
		if len(s) != len(series[0]) {
			return errs.NewValidation(op, "series lengths differ: %d vs %d", len(series[0]), len(s))
		}
	}
	return nil
}

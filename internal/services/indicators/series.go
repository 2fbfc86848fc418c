// Package indicators implements the technical indicators the engine reads.
// Every function is deterministic and fails with an InsufficientDataError
// when its input is shorter than the declared minimum.
package indicators

import (
	"math"

	"github.com/shopspring/decimal"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/services/features"
)

// DefaultPrecision is the number of decimals results are rounded to before
// they are classified.
const DefaultPrecision int32 = 2

// ValidateSeries rejects series holding NaN, Inf or negative values.
func ValidateSeries(field string, xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return &errs.InvalidDataError{Field: field, Index: i, Value: x}
		}
	}
	return nil
}

// ValidateCandles checks every OHLCV field of the window.
func ValidateCandles(candles []models.Candle) error {
	checks := []struct {
		field string
		xs    []float64
	}{
		{"open", features.Opens(candles)},
		{"high", features.Highs(candles)},
		{"low", features.Lows(candles)},
		{"close", features.Closes(candles)},
		{"volume", features.Volumes(candles)},
	}
	for _, c := range checks {
		if err := ValidateSeries(c.field, c.xs); err != nil {
			return err
		}
	}
	return nil
}

func requireLen(op string, need, have int) error {
	if have < need {
		return errs.NewInsufficientData(op, need, have)
	}
	return nil
}

func requirePeriod(op string, period int) error {
	if period < 2 {
		return errs.NewValidation(op, "period must be >= 2, got %d", period)
	}
	return nil
}

// Round rounds v half away from zero to the given number of decimals.
// Non-finite values are returned unchanged.
func Round(v float64, precision int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(precision).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Confidence clamps v to [0,100].
func Confidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 100)
}

func last(xs []float64) float64 { return xs[len(xs)-1] }

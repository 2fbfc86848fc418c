package indicators

import (
	"errors"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/services/features"
)

// VolumeRatio is the last volume divided by the mean of the period volumes
// before it. It needs period+1 points.
func VolumeRatio(volumes []float64, period int) (float64, error) {
	if err := requirePeriod("volume_ratio", period); err != nil {
		return 0, err
	}
	if err := requireLen("volume_ratio", period+1, len(volumes)); err != nil {
		return 0, err
	}
	n := len(volumes)
	avg := features.Mean(volumes[n-1-period : n-1])
	if avg <= 0 {
		return 0, &errs.CalculationError{Op: "volume_ratio", Err: errors.New("zero average volume")}
	}
	return volumes[n-1] / avg, nil
}

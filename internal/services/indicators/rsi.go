package indicators

// RSISeries computes Wilder's RSI. The result has len(closes)-period
// entries; entry j belongs to closes[j+period]. A window with no price
// change yields a neutral 50.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if err := requirePeriod("rsi", period); err != nil {
		return nil, err
	}
	if err := requireLen("rsi", period+1, len(closes)); err != nil {
		return nil, err
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p

	out := make([]float64, 0, len(closes)-period)
	out = append(out, rsiValue(avgGain, avgLoss))
	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

// RSI returns the latest RSI value.
func RSI(closes []float64, period int) (float64, error) {
	s, err := RSISeries(closes, period)
	if err != nil {
		return 0, err
	}
	return last(s), nil
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

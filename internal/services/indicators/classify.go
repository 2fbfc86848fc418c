package indicators

import (
	"math"

	"SignalEngine/internal/domain/models"
)

// Classification rules turn a rounded indicator value into a Signal and a
// confidence in [0,100].

func classifyRSI(rsi float64) (models.Signal, float64) {
	conf := Confidence(math.Abs(rsi-50) * 2)
	switch {
	case rsi < 20:
		return models.StrongBuy, conf
	case rsi < 30:
		return models.Buy, conf
	case rsi > 80:
		return models.StrongSell, conf
	case rsi > 70:
		return models.Sell, conf
	}
	return models.Hold, 100 - conf
}

func classifyMACD(r MACDResult) (models.Signal, float64) {
	scale := math.Abs(r.MACD) + math.Abs(r.Signal)
	conf := 0.0
	if scale > 0 {
		conf = Confidence(math.Abs(r.Histogram) / scale * 100)
	}
	rising := len(r.Histograms) > 1 && r.Histogram > r.Histograms[len(r.Histograms)-2]
	switch r.Trend() {
	case 1:
		if rising && r.MACD > 0 {
			return models.StrongBuy, conf
		}
		return models.Buy, conf
	case -1:
		if !rising && r.MACD < 0 {
			return models.StrongSell, conf
		}
		return models.Sell, conf
	}
	return models.Hold, 0
}

func classifyPercentB(pb float64) (models.Signal, float64) {
	conf := Confidence(math.Abs(pb-0.5) * 200)
	switch {
	case pb < 0:
		return models.StrongBuy, conf
	case pb < 0.2:
		return models.Buy, conf
	case pb > 1:
		return models.StrongSell, conf
	case pb > 0.8:
		return models.Sell, conf
	}
	return models.Hold, 100 - conf
}

func classifyStochastic(r StochasticResult) (models.Signal, float64) {
	conf := Confidence(math.Abs(r.K-50) * 2)
	switch {
	case r.K < 10:
		return models.StrongBuy, conf
	case r.K < 20 && r.K >= r.D:
		return models.Buy, conf
	case r.K > 90:
		return models.StrongSell, conf
	case r.K > 80 && r.K <= r.D:
		return models.Sell, conf
	}
	return models.Hold, 100 - conf
}

func classifyOscillator(r OscillatorResult) (models.Signal, float64) {
	gap := math.Abs(r.Value - r.Signal)
	scale := math.Abs(r.Value) + math.Abs(r.Signal)
	rel := 0.0
	if scale > 0 {
		rel = gap / scale
	}
	switch r.Cross {
	case CrossBullish:
		return models.Buy, Confidence(60 + 40*rel)
	case CrossBearish:
		return models.Sell, Confidence(60 + 40*rel)
	}
	return models.Hold, Confidence(40 * rel)
}

func classifyADX(r ADXResult) (models.Signal, float64) {
	conf := Confidence(r.ADX * 2)
	if r.ADX < 20 {
		return models.Hold, conf
	}
	strong := r.ADX >= 40
	switch r.Direction() {
	case 1:
		if strong {
			return models.StrongBuy, conf
		}
		return models.Buy, conf
	case -1:
		if strong {
			return models.StrongSell, conf
		}
		return models.Sell, conf
	}
	return models.Hold, conf
}

// classifyDistance reads price distance from a moving average in percent.
func classifyDistance(pct float64) (models.Signal, float64) {
	conf := Confidence(math.Abs(pct) * 20)
	switch {
	case pct > 5:
		return models.StrongBuy, conf
	case pct > 0:
		return models.Buy, conf
	case pct < -5:
		return models.StrongSell, conf
	case pct < 0:
		return models.Sell, conf
	}
	return models.Hold, 0
}

package analytics

import (
	"math/rand"

	"SignalEngine/internal/domain/models"
)

func trendCandles(n int, start, step, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	for i := range out {
		open := price
		price += step
		out[i] = models.Candle{
			Time:   int64(i) * 3600,
			Open:   open,
			High:   max(open, price) * 1.002,
			Low:    min(open, price) * 0.998,
			Close:  price,
			Volume: volume,
		}
	}
	return out
}

// choppyCandles alternates up and down bars so RSI stays near 50.
func choppyCandles(n int, price, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		open, cl := price, price*1.01
		if i%2 == 1 {
			open, cl = price*1.01, price
		}
		out[i] = models.Candle{
			Time: int64(i) * 3600, Open: open, Close: cl,
			High: price * 1.012, Low: price * 0.998, Volume: volume,
		}
	}
	return out
}

func randomCandles(r *rand.Rand, n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 10 + r.Float64()*1000
	for i := range out {
		open := price
		price *= 1 + (r.Float64()-0.5)*0.06
		hi := max(open, price) * (1 + r.Float64()*0.01)
		lo := min(open, price) * (1 - r.Float64()*0.01)
		out[i] = models.Candle{Time: int64(i) * 3600, Open: open, High: hi, Low: lo, Close: price, Volume: 100 + r.Float64()*1000}
	}
	return out
}

func snapshot(price, change, spreadPct float64) models.PriceSnapshot {
	s := models.PriceSnapshot{Symbol: "BTC", Price: price, Change24h: change, Volume24h: 1e6}
	if spreadPct > 0 {
		half := price * spreadPct / 200
		s.High24h = price + half
		s.Low24h = price - half
	}
	return s
}

func ptr(v float64) *float64 { return &v }

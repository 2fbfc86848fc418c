package indicators

import (
	"math/rand"

	"SignalEngine/internal/domain/models"
)

// trendCandles builds n candles whose close moves by step each bar.
func trendCandles(n int, start, step float64) []models.Candle {
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
			Volume: 1000,
		}
	}
	return out
}

func randomCandles(n int, seed int64) []models.Candle {
	r := rand.New(rand.NewSource(seed))
	out := make([]models.Candle, n)
	price := 100.0
	for i := range out {
		open := price
		price *= 1 + (r.Float64()-0.5)*0.04
		hi := max(open, price) * (1 + r.Float64()*0.01)
		lo := min(open, price) * (1 - r.Float64()*0.01)
		out[i] = models.Candle{Time: int64(i) * 3600, Open: open, High: hi, Low: lo, Close: price, Volume: 500 + r.Float64()*1000}
	}
	return out
}

func flatCandles(n int, price float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Time: int64(i) * 3600, Open: price, High: price, Low: price, Close: price, Volume: 1000}
	}
	return out
}

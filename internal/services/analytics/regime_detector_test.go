package analytics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"SignalEngine/internal/domain/models"
	"SignalEngine/pkg/config"
)

func newClassifier() *RegimeClassifier {
	return NewRegimeClassifier(config.Default().Engine.Regime)
}

func TestRegimeDecisionOrder(t *testing.T) {
	c := newClassifier()
	tests := []struct {
		name string
		in   models.RegimeInput
		want models.MarketRegime
	}{
		{"wide range and big move", models.RegimeInput{Snapshot: snapshot(100, 15, 20)}, models.HighVolatility},
		{"wide range and big drop", models.RegimeInput{Snapshot: snapshot(100, -15, 20)}, models.HighVolatility},
		{"tight range", models.RegimeInput{Snapshot: snapshot(100, 0.1, 1)}, models.LowVolatility},
		{"confirmed rally", models.RegimeInput{Snapshot: snapshot(100, 7, 8), MACDHist: ptr(0.4)}, models.BullMarket},
		{"confirmed sell-off", models.RegimeInput{Snapshot: snapshot(100, -7, 8), PriceVsEMA: ptr(-2)}, models.BearMarket},
		{"unconfirmed rally with strong adx", models.RegimeInput{Snapshot: snapshot(100, 7, 8), MACDHist: ptr(-0.4), ADX: ptr(35)}, models.Trending},
		{"strong adx small move", models.RegimeInput{Snapshot: snapshot(100, 1, 5), ADX: ptr(30)}, models.Trending},
		{"bounded range moderate rsi", models.RegimeInput{Snapshot: snapshot(100, 1, 4), RSI: ptr(50), ADX: ptr(15)}, models.MeanReversion},
		{"bounded range hot rsi", models.RegimeInput{Snapshot: snapshot(100, 1, 4), RSI: ptr(72)}, models.Sideways},
		{"no range data", models.RegimeInput{Snapshot: snapshot(100, 2, 0)}, models.Sideways},
		{"no range data big move", models.RegimeInput{Snapshot: snapshot(100, -9, 0)}, models.BearMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.in))
		})
	}
}

func TestRegimeClassificationIsTotal(t *testing.T) {
	c := newClassifier()
	r := rand.New(rand.NewSource(1))
	odd := []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), 1e12}
	for i := 0; i < 5000; i++ {
		s := snapshot(r.Float64()*1000, (r.Float64()-0.5)*60, r.Float64()*40)
		switch i % 4 {
		case 1:
			s.High24h, s.Low24h = 0, 0
		case 2:
			s.Price = odd[r.Intn(len(odd))]
			s.Change24h = odd[r.Intn(len(odd))]
		case 3:
			s.High24h, s.Low24h = s.Low24h, s.High24h
		}
		in := models.RegimeInput{Snapshot: s}
		if i%3 == 0 {
			in.RSI, in.ADX = ptr(r.Float64()*100), ptr(r.Float64()*60)
			in.MACDHist, in.PriceVsEMA = ptr(r.NormFloat64()), ptr(math.NaN())
		}
		got := c.Classify(in)
		assert.True(t, got.Valid(), "input %+v gave %q", in, got)
	}
	assert.Equal(t, models.Sideways, c.Classify(models.RegimeInput{}))
}

func TestRegimeTableCoversEveryRegime(t *testing.T) {
	assert.ElementsMatch(t, models.Regimes, newClassifier().Outcomes())
}

func TestRegimeThresholdsAreConfiguration(t *testing.T) {
	cfg := config.Default().Engine.Regime
	cfg.LowVolSpreadPct = 0.5
	c := NewRegimeClassifier(cfg)
	regime, rule := c.Explain(models.RegimeInput{Snapshot: snapshot(100, 0.1, 1)})
	assert.NotEqual(t, models.LowVolatility, regime)
	assert.NotEqual(t, "low_volatility", rule)
}

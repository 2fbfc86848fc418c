package analytics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"SignalEngine/internal/domain/models"
	"SignalEngine/pkg/config"
)

func newEntryGenerator(mod func(*config.EntryConfig)) *EntryGenerator {
	cfg := config.Default().Engine
	if mod != nil {
		mod(&cfg.Entry)
	}
	return NewEntryGenerator(cfg.Entry, cfg.Indicators)
}

func TestEntryOptimalSetupsAreOrdered(t *testing.T) {
	g := newEntryGenerator(nil)
	r := rand.New(rand.NewSource(3))
	optimal := 0
	for i := 0; i < 400; i++ {
		candles := randomCandles(r, 120)
		if i%5 == 0 {
			candles[len(candles)-1].Volume *= 4
		}
		last := candles[len(candles)-1].Close
		regime := models.Regimes[i%len(models.Regimes)]
		sig := g.Generate(models.MarketData{Snapshot: snapshot(last, 1, 5), Candles: candles}, regime)

		assert.Equal(t, strengthFor(sig.Indicators.Count()), sig.Strength)
		if !sig.IsOptimalEntry {
			continue
		}
		optimal++
		assert.GreaterOrEqual(t, sig.Indicators.Count(), 2)
		assert.GreaterOrEqual(t, sig.RiskReward, 1.5)
		if sig.Direction == models.Long {
			assert.Greater(t, sig.TargetPrice, sig.EntryPrice)
			assert.Greater(t, sig.EntryPrice, sig.StopLoss)
		} else {
			assert.Less(t, sig.TargetPrice, sig.EntryPrice)
			assert.Less(t, sig.EntryPrice, sig.StopLoss)
		}
	}
	assert.Positive(t, optimal, "expected some random windows to produce a setup")
}

func TestEntryBelowMinimumRiskRewardIsDemoted(t *testing.T) {
	g := newEntryGenerator(func(c *config.EntryConfig) { c.MinRiskReward = 50 })
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		candles := randomCandles(r, 120)
		last := candles[len(candles)-1].Close
		sig := g.Generate(models.MarketData{Snapshot: snapshot(last, 0, 5), Candles: candles}, models.Sideways)
		assert.False(t, sig.IsOptimalEntry)
	}
}

func TestEntryFlatMarketHasNoSetup(t *testing.T) {
	g := newEntryGenerator(nil)
	candles := choppyCandles(120, 50, 1000)
	sig := g.Generate(models.MarketData{Snapshot: snapshot(50, 0.1, 1), Candles: candles}, models.LowVolatility)
	assert.False(t, sig.IsOptimalEntry)
	assert.Equal(t, 50.0, sig.EntryPrice)
}

func TestEntryWithoutCandlesFallsBackToDefaultStop(t *testing.T) {
	g := newEntryGenerator(nil)
	sig := g.Generate(models.MarketData{Snapshot: snapshot(100, 0, 5)}, models.Sideways)
	assert.False(t, sig.IsOptimalEntry)
	assert.Equal(t, models.StrengthWeak, sig.Strength)
	assert.InDelta(t, 98.0, sig.StopLoss, 1e-9)
	assert.InDelta(t, 104.0, sig.TargetPrice, 1e-9)
}

func TestStrengthFor(t *testing.T) {
	assert.Equal(t, models.StrengthWeak, strengthFor(0))
	assert.Equal(t, models.StrengthWeak, strengthFor(1))
	assert.Equal(t, models.StrengthModerate, strengthFor(2))
	assert.Equal(t, models.StrengthStrong, strengthFor(3))
	assert.Equal(t, models.StrengthVeryStrong, strengthFor(4))
}

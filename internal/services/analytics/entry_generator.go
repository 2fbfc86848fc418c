package analytics

import (
	"fmt"
	"math"
	"strings"

	"SignalEngine/internal/domain/models"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/services/features"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/pkg/config"
)

const pricePrecision int32 = 8

// EntryGenerator looks for confluence of four entry indicators on the side
// most of them favor and builds a risk-bounded setup around the price.
type EntryGenerator struct {
	cfg config.EntryConfig
	ind config.IndicatorConfig
}

func NewEntryGenerator(cfg config.EntryConfig, ind config.IndicatorConfig) *EntryGenerator {
	return &EntryGenerator{cfg: cfg, ind: ind}
}

type entrySides struct {
	long, short models.EntryIndicators
}

func (g *EntryGenerator) Generate(data models.MarketData, regime models.MarketRegime) models.EntrySignal {
	sides := g.evaluate(data.Candles)

	direction := models.Long
	flags := sides.long
	lc, sc := sides.long.Count(), sides.short.Count()
	if sc > lc || (sc == lc && regime == models.BearMarket) {
		direction, flags = models.Short, sides.short
	}

	count := flags.Count()
	sig := models.EntrySignal{
		IsOptimalEntry: count >= 2,
		Direction:      direction,
		Strength:       strengthFor(count),
		Indicators:     flags,
	}

	price := data.Snapshot.Price
	stopPct, targetPct := g.distances(data.Candles, regime)
	sig.EntryPrice = indicators.Round(price, pricePrecision)
	if direction == models.Long {
		sig.TargetPrice = indicators.Round(price*(1+targetPct/100), pricePrecision)
		sig.StopLoss = indicators.Round(price*(1-stopPct/100), pricePrecision)
	} else {
		sig.TargetPrice = indicators.Round(price*(1-targetPct/100), pricePrecision)
		sig.StopLoss = indicators.Round(price*(1+stopPct/100), pricePrecision)
	}
	sig.RiskReward = indicators.Round(targetPct/stopPct, 2)

	if sig.IsOptimalEntry && (sig.RiskReward < g.cfg.MinRiskReward || !ordered(sig)) {
		sig.IsOptimalEntry = false
	}
	sig.Confidence = g.confidence(count, sig)
	sig.Recommendation = entryRecommendation(sig)
	return sig
}

func (g *EntryGenerator) evaluate(candles []models.Candle) entrySides {
	var s entrySides
	closes := features.Closes(candles)

	if cross, ok := g.emaCross(closes); ok {
		s.long.TrendReversal = cross == indicators.CrossBullish
		s.short.TrendReversal = cross == indicators.CrossBearish
	}
	if rvi, err := indicators.RVI(candles, g.ind.RVIPeriod); err == nil {
		s.long.TrendReversal = s.long.TrendReversal || rvi.Cross == indicators.CrossBullish
		s.short.TrendReversal = s.short.TrendReversal || rvi.Cross == indicators.CrossBearish
	}

	if ratio, err := indicators.VolumeRatio(features.Volumes(candles), g.ind.VolumePeriod); err == nil {
		s.long.VolumeIncrease = ratio >= g.cfg.VolumeIncrease
		s.short.VolumeIncrease = s.long.VolumeIncrease
	}

	if macd, err := indicators.MACD(closes, g.ind.MACDFast, g.ind.MACDSlow, g.ind.MACDSignal); err == nil && len(macd.Histograms) >= 3 {
		h := macd.Histograms[len(macd.Histograms)-3:]
		s.long.MomentumBuilding = h[0] < h[1] && h[1] < h[2]
		s.short.MomentumBuilding = h[0] > h[1] && h[1] > h[2]
	}

	s.long.Divergence, s.short.Divergence = g.divergence(candles)
	return s
}

// emaCross reports a fast/slow EMA cross within the last three bars.
func (g *EntryGenerator) emaCross(closes []float64) (indicators.Cross, bool) {
	fast, err := indicators.EMA(closes, g.cfg.FastEMA)
	if err != nil {
		return indicators.CrossNone, false
	}
	slow, err := indicators.EMA(closes, g.cfg.SlowEMA)
	if err != nil || len(closes) < g.cfg.SlowEMA+3 {
		return indicators.CrossNone, false
	}
	n := len(closes)
	for i := n - 1; i >= n-3; i-- {
		if c := indicators.Crossover(fast[i-1], slow[i-1], fast[i], slow[i]); c != indicators.CrossNone {
			return c, true
		}
	}
	return indicators.CrossNone, true
}

// divergence compares the two halves of the lookback window: a lower price
// low with a higher RSI low is bullish, a higher price high with a lower RSI
// high is bearish.
func (g *EntryGenerator) divergence(candles []models.Candle) (bullish, bearish bool) {
	look := g.cfg.DivergenceLookback
	closes := features.Closes(candles)
	rsi, err := indicators.RSISeries(closes, g.ind.RSIPeriod)
	if err != nil || len(rsi) < 2*look {
		return false, false
	}
	price := closes[len(closes)-2*look:]
	osc := rsi[len(rsi)-2*look:]

	oldLo, oldHi := features.MinMax(price[:look])
	newLo, newHi := features.MinMax(price[look:])
	oldRSILo, oldRSIHi := features.MinMax(osc[:look])
	newRSILo, newRSIHi := features.MinMax(osc[look:])

	bullish = newLo < oldLo && newRSILo > oldRSILo
	bearish = newHi > oldHi && newRSIHi < oldRSIHi
	return bullish, bearish
}

// distances returns stop and target as percentages of the entry price.
func (g *EntryGenerator) distances(candles []models.Candle, regime models.MarketRegime) (stopPct, targetPct float64) {
	atr, err := indicators.ATR(features.Highs(candles), features.Lows(candles), features.Closes(candles), g.ind.ATRPeriod)
	if err != nil || atr.Percent <= 0 || math.IsNaN(atr.Percent) {
		stopPct = g.cfg.DefaultStopPct
		targetPct = g.cfg.DefaultStopPct * g.cfg.TargetATRMultiple / g.cfg.StopATRMultiple
	} else {
		stopPct = atr.Percent * g.cfg.StopATRMultiple
		targetPct = atr.Percent * g.cfg.TargetATRMultiple
	}
	targetPct *= regimeTargetFactor(regime)
	stopPct = math.Max(0.5, math.Min(15, stopPct))
	targetPct = math.Max(1, math.Min(40, targetPct))
	return stopPct, targetPct
}

func regimeTargetFactor(r models.MarketRegime) float64 {
	switch r {
	case models.HighVolatility:
		return 1.2
	case models.BullMarket, models.BearMarket, models.Trending:
		return 1.1
	case models.LowVolatility:
		return 0.8
	}
	return 1
}

func (g *EntryGenerator) confidence(count int, sig models.EntrySignal) float64 {
	if !sig.IsOptimalEntry {
		return float64(count) * 15
	}
	bonus := math.Max(0, math.Min(20, (sig.RiskReward-g.cfg.MinRiskReward)*10))
	return indicators.Round(indicators.Confidence(float64(count)/4*80+bonus), 2)
}

func ordered(sig models.EntrySignal) bool {
	if sig.Direction == models.Long {
		return sig.TargetPrice > sig.EntryPrice && sig.EntryPrice > sig.StopLoss
	}
	return sig.TargetPrice < sig.EntryPrice && sig.EntryPrice < sig.StopLoss
}

func strengthFor(count int) models.Strength {
	switch {
	case count >= 4:
		return models.StrengthVeryStrong
	case count == 3:
		return models.StrengthStrong
	case count == 2:
		return models.StrengthModerate
	}
	return models.StrengthWeak
}

func entryRecommendation(sig models.EntrySignal) string {
	if !sig.IsOptimalEntry {
		if sig.Indicators.Count() >= 2 {
			return fmt.Sprintf("Setup rejected: risk/reward %.2f is below the minimum.", sig.RiskReward)
		}
		return "No optimal entry; wait for more confirmation."
	}
	side := "long"
	if sig.Direction == models.Short {
		side = "short"
	}
	return fmt.Sprintf("%s %s entry at %s: target %s, stop %s (R:R %.2f) on %s.",
		humanize(string(sig.Strength)), side,
		formatPrice(sig.EntryPrice), formatPrice(sig.TargetPrice), formatPrice(sig.StopLoss),
		sig.RiskReward, strings.Join(firedEntry(sig.Indicators), ", "))
}

// humanize turns VERY_STRONG into "Very strong".
func humanize(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firedEntry(f models.EntryIndicators) []string {
	var out []string
	if f.TrendReversal {
		out = append(out, "trend reversal")
	}
	if f.VolumeIncrease {
		out = append(out, "rising volume")
	}
	if f.MomentumBuilding {
		out = append(out, "building momentum")
	}
	if f.Divergence {
		out = append(out, "divergence")
	}
	return out
}

func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return fmt.Sprintf("%.2f", p)
	case p >= 0.01:
		return fmt.Sprintf("%.4f", p)
	}
	return fmt.Sprintf("%.8f", p)
}

var _ domsvc.EntryGenerator = (*EntryGenerator)(nil)

package analytics

import (
	"math"

	"SignalEngine/internal/domain/models"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/pkg/config"
)

// regimeFacts are the normalized statistics the decision table reads.
type regimeFacts struct {
	hasRange   bool
	spread     float64
	change     float64
	rsi        *float64
	adx        *float64
	macdHist   *float64
	priceVsEMA *float64
}

// regimeRule is one row of the decision table. match reports the regime it
// assigns, if any.
type regimeRule struct {
	name   string
	yields []models.MarketRegime
	match  func(f regimeFacts) (models.MarketRegime, bool)
}

// RegimeClassifier evaluates a priority-ordered decision table built from
// configured thresholds; the first matching row wins and SIDEWAYS is the
// fallback row, so Classify is total.
type RegimeClassifier struct {
	rules    []regimeRule
	fallback models.MarketRegime
}

func NewRegimeClassifier(cfg config.RegimeConfig) *RegimeClassifier {
	return &RegimeClassifier{rules: regimeTable(cfg), fallback: models.Sideways}
}

func regimeTable(cfg config.RegimeConfig) []regimeRule {
	return []regimeRule{
		{
			name:   "high_volatility",
			yields: []models.MarketRegime{models.HighVolatility},
			match: func(f regimeFacts) (models.MarketRegime, bool) {
				return models.HighVolatility, f.hasRange && f.spread > cfg.HighVolSpreadPct && math.Abs(f.change) > cfg.HighVolChangePct
			},
		},
		{
			name:   "low_volatility",
			yields: []models.MarketRegime{models.LowVolatility},
			match: func(f regimeFacts) (models.MarketRegime, bool) {
				return models.LowVolatility, f.hasRange && f.spread < cfg.LowVolSpreadPct
			},
		},
		{
			name:   "directional",
			yields: []models.MarketRegime{models.BullMarket, models.BearMarket},
			match: func(f regimeFacts) (models.MarketRegime, bool) {
				if math.Abs(f.change) <= cfg.TrendChangePct || !f.confirms(sign(f.change)) {
					return "", false
				}
				if f.change > 0 {
					return models.BullMarket, true
				}
				return models.BearMarket, true
			},
		},
		{
			name:   "trending",
			yields: []models.MarketRegime{models.Trending},
			match: func(f regimeFacts) (models.MarketRegime, bool) {
				return models.Trending, f.adx != nil && *f.adx > cfg.ADXTrending
			},
		},
		{
			name:   "mean_reversion",
			yields: []models.MarketRegime{models.MeanReversion},
			match: func(f regimeFacts) (models.MarketRegime, bool) {
				ok := f.hasRange && f.rsi != nil &&
					f.spread <= cfg.RangeSpreadPct &&
					math.Abs(f.change) <= cfg.RangeMaxChangePct &&
					*f.rsi >= cfg.RangeRSILow && *f.rsi <= cfg.RangeRSIHigh
				return models.MeanReversion, ok
			},
		},
	}
}

// confirms reports whether the momentum statistics agree with direction.
// With no momentum statistics the change itself is taken as confirmation.
func (f regimeFacts) confirms(direction int) bool {
	if f.macdHist == nil && f.priceVsEMA == nil {
		return true
	}
	if f.macdHist != nil && sign(*f.macdHist) == direction {
		return true
	}
	return f.priceVsEMA != nil && sign(*f.priceVsEMA) == direction
}

func (c *RegimeClassifier) Classify(in models.RegimeInput) models.MarketRegime {
	regime, _ := c.Explain(in)
	return regime
}

// Explain classifies in and names the table row that decided it.
func (c *RegimeClassifier) Explain(in models.RegimeInput) (models.MarketRegime, string) {
	f := regimeFacts{
		hasRange:   in.Snapshot.HasRange() && in.Snapshot.Price > 0,
		spread:     in.Snapshot.SpreadPct(),
		change:     finiteOr(in.Snapshot.Change24h, 0),
		rsi:        finitePtr(in.RSI),
		adx:        finitePtr(in.ADX),
		macdHist:   finitePtr(in.MACDHist),
		priceVsEMA: finitePtr(in.PriceVsEMA),
	}
	for _, r := range c.rules {
		if regime, ok := r.match(f); ok {
			return regime, r.name
		}
	}
	return c.fallback, "default"
}

// Outcomes lists every regime the table can produce, fallback included.
func (c *RegimeClassifier) Outcomes() []models.MarketRegime {
	var out []models.MarketRegime
	for _, r := range c.rules {
		out = append(out, r.yields...)
	}
	return append(out, c.fallback)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func finitePtr(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}

var _ domsvc.RegimeClassifier = (*RegimeClassifier)(nil)

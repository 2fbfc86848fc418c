package strategy

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/domain/repository"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/services/features"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/pkg/config"
	applogger "SignalEngine/pkg/logger"
)

const defaultRiskBaseline = 30.0

// Executor classifies the regime, runs every registered strategy and fuses
// the surviving signals into one StrategyResult.
type Executor struct {
	classifier domsvc.RegimeClassifier
	strategies []domsvc.Strategy
	calc       *indicators.Calculator
	cfg        config.StrategyConfig
	metrics    repository.Metrics
	log        *applogger.Logger
}

func NewExecutor(
	classifier domsvc.RegimeClassifier,
	strategies []domsvc.Strategy,
	calc *indicators.Calculator,
	cfg config.StrategyConfig,
	metrics repository.Metrics,
	l *applogger.Logger,
) *Executor {
	if l == nil {
		l = applogger.Nop()
	}
	return &Executor{
		classifier: classifier,
		strategies: strategies,
		calc:       calc,
		cfg:        cfg,
		metrics:    metrics,
		log:        l,
	}
}

// Strategies returns the registered strategy names in evaluation order.
func (e *Executor) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return names
}

// RegimeInput derives the classifier input from the market data. ADX and
// ATR prefer the long window and fall back to the primary one.
func (e *Executor) RegimeInput(data models.MarketData) models.RegimeInput {
	in := models.RegimeInput{Snapshot: data.Snapshot}
	candles := data.Candles

	if r, err := e.calc.RSI(candles); err == nil {
		in.RSI = &r.Value
	}
	if _, m, err := e.calc.MACD(candles); err == nil {
		in.MACDHist = &m.Histogram
	}
	if r, err := e.calc.EMA(candles); err == nil {
		in.PriceVsEMA = &r.Value
	}
	for _, w := range [][]models.Candle{data.Long, candles} {
		if in.ADX == nil {
			if _, a, err := e.calc.ADX(w); err == nil {
				in.ADX = &a.ADX
			}
		}
		if in.ATRPct == nil {
			if _, a, err := e.calc.ATR(w); err == nil {
				in.ATRPct = &a.Percent
			}
		}
	}
	return in
}

// Execute never fails: strategies that error are excluded, and with no
// survivors the result is a zero-confidence HOLD.
func (e *Executor) Execute(data models.MarketData) models.StrategyResult {
	in := e.RegimeInput(data)
	regime := e.classifier.Classify(in)

	res := models.StrategyResult{Regime: regime}
	var failures []string
	for _, s := range e.strategies {
		sig, err := e.run(s, data)
		if err != nil {
			res.Excluded = append(res.Excluded, s.Name())
			failures = append(failures, fmt.Sprintf("%s: %v", s.Name(), err))
			e.log.Debug("strategy excluded",
				applogger.String("strategy", s.Name()),
				applogger.String("symbol", data.Snapshot.Symbol),
				applogger.Error(err))
			if e.metrics != nil {
				e.metrics.RecordStrategyFailure(s.Name())
			}
			continue
		}
		res.Signals = append(res.Signals, sig)
	}

	base := e.baseline(regime) + e.volatilityRisk(data, in)
	if len(res.Signals) == 0 {
		res.PrimarySignal = models.StrategySignal{
			Strategy:   "NONE",
			Signal:     models.Hold,
			Confidence: 0,
			Reasoning:  "no strategy produced a signal: " + strings.Join(failures, "; "),
		}
		res.RiskScore = indicators.Round(indicators.Confidence(base), 2)
		return res
	}

	res.PrimarySignal = e.primary(regime, res.Signals)
	agreement := agreementWith(res.PrimarySignal.Signal, res.Signals)

	pw, aw := e.cfg.PrimaryWeight, e.cfg.AgreementWeight
	if pw+aw <= 0 {
		pw, aw = 1, 0
	}
	overall := (pw*res.PrimarySignal.Confidence + aw*agreement*100) / (pw + aw)
	res.OverallConfidence = indicators.Round(indicators.Confidence(overall), 2)

	risk := base + disagreement(res.Signals)*e.cfg.DisagreementWeight
	res.RiskScore = indicators.Round(indicators.Confidence(risk), 2)
	return res
}

// run isolates a strategy so a panic excludes it instead of the whole cycle.
func (e *Executor) run(s domsvc.Strategy, data models.MarketData) (sig models.StrategySignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Evaluate(data)
}

// primary prefers strategies whose affinity covers the regime; ties keep
// registry order.
func (e *Executor) primary(regime models.MarketRegime, signals []models.StrategySignal) models.StrategySignal {
	affine := make(map[string]bool, len(e.strategies))
	for _, s := range e.strategies {
		affine[s.Name()] = slices.Contains(s.Affinity(), regime)
	}
	best := -1
	for i, sig := range signals {
		if !affine[sig.Strategy] {
			continue
		}
		if best < 0 || sig.Confidence > signals[best].Confidence {
			best = i
		}
	}
	if best >= 0 {
		return signals[best]
	}
	best = 0
	for i, sig := range signals {
		if sig.Confidence > signals[best].Confidence {
			best = i
		}
	}
	return signals[best]
}

func (e *Executor) baseline(regime models.MarketRegime) float64 {
	if v, ok := e.cfg.RiskBaseline[string(regime)]; ok {
		return v
	}
	return defaultRiskBaseline
}

// volatilityRisk scales ATR% into risk points. Without ATR, per-bar realized
// volatility of log returns stands in.
func (e *Executor) volatilityRisk(data models.MarketData, in models.RegimeInput) float64 {
	pct := 0.0
	if in.ATRPct != nil {
		pct = *in.ATRPct
	} else {
		window := e.calc.Config().ATRPeriod
		returns := features.ComputeLogReturns(data.Candles)
		if len(returns) < window {
			window = len(returns)
		}
		pct = features.RealizedVolatility(returns, window) * 100
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct * e.cfg.ATRRiskWeight
}

// agreementWith is the share of signals leaning the same way as sig.
func agreementWith(sig models.Signal, signals []models.StrategySignal) float64 {
	n := 0
	for _, s := range signals {
		if s.Signal.Bias() == sig.Bias() {
			n++
		}
	}
	return float64(n) / float64(len(signals))
}

// disagreement is 1 minus the share held by the most common bias.
func disagreement(signals []models.StrategySignal) float64 {
	counts := map[int]int{}
	top := 0
	for _, s := range signals {
		counts[s.Signal.Bias()]++
		top = max(top, counts[s.Signal.Bias()])
	}
	return 1 - float64(top)/float64(len(signals))
}

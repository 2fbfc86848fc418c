package usecase

import (
	"fmt"
	"strings"
	"time"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/pkg/config"
)

// StrategyRunner fuses the strategy set into one result for a cycle.
type StrategyRunner interface {
	Execute(data models.MarketData) models.StrategyResult
}

// Analyzer assembles an AssetAnalysis from the executor and both detectors.
// It is pure: the same input always yields the same analysis apart from the
// timestamp.
type Analyzer struct {
	calc     *indicators.Calculator
	executor StrategyRunner
	crash    domsvc.CrashDetector
	entry    domsvc.EntryGenerator
	cfg      config.CrashConfig
	now      func() time.Time
}

func NewAnalyzer(
	calc *indicators.Calculator,
	executor StrategyRunner,
	crash domsvc.CrashDetector,
	entry domsvc.EntryGenerator,
	cfg config.CrashConfig,
) *Analyzer {
	return &Analyzer{calc: calc, executor: executor, crash: crash, entry: entry, cfg: cfg, now: time.Now}
}

// Analyze runs one cycle over a snapshot and its primary candle window.
func (a *Analyzer) Analyze(symbol string, snap models.PriceSnapshot, candles []models.Candle) (*models.AssetAnalysis, error) {
	return a.AnalyzeData(symbol, models.MarketData{Snapshot: snap, Candles: candles})
}

// AnalyzeData is Analyze with the optional long window.
func (a *Analyzer) AnalyzeData(symbol string, data models.MarketData) (*models.AssetAnalysis, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errs.NewAnalysis("", errs.NewValidation("symbol", "must not be empty"))
	}
	if data.Snapshot.Symbol == "" {
		data.Snapshot.Symbol = symbol
	}
	if err := data.Snapshot.Validate(); err != nil {
		return nil, errs.NewAnalysis(symbol, err)
	}
	if err := indicators.ValidateCandles(data.Candles); err != nil {
		return nil, errs.NewAnalysis(symbol, err)
	}
	if err := indicators.ValidateCandles(data.Long); err != nil {
		data.Long = nil
	}

	result := a.executor.Execute(data)
	if len(result.Signals) == 0 {
		return nil, errs.NewAnalysis(symbol, fmt.Errorf("%w: %s", errs.ErrNoStrategies, result.PrimarySignal.Reasoning))
	}
	crash := a.crash.Detect(data)
	entry := a.entry.Generate(data, result.Regime)

	out := &models.AssetAnalysis{
		Symbol:        symbol,
		Timestamp:     a.now().UTC(),
		Snapshot:      data.Snapshot,
		Strategy:      result,
		Crash:         crash,
		Entry:         entry,
		Indicators:    a.calc.Compute(data.Candles),
		OverallSignal: result.PrimarySignal.Signal,
		Confidence:    result.OverallConfidence,
		RiskScore:     result.RiskScore,
	}
	if crash.IsCrashing {
		if out.OverallSignal.IsBullish() {
			out.OverallSignal = models.Hold
		}
		out.Confidence = indicators.Round(out.Confidence*(1-a.cfg.ConfidencePenalty), 2)
		out.RiskScore = max(out.RiskScore, a.riskFloor(crash.Severity))
	}
	out.Recommendation = recommend(out)
	return out, nil
}

func (a *Analyzer) riskFloor(s models.Severity) float64 {
	switch s {
	case models.SeverityExtreme:
		return a.cfg.RiskFloorExtreme
	case models.SeverityHigh:
		return a.cfg.RiskFloorHigh
	case models.SeverityMedium:
		return a.cfg.RiskFloorMedium
	}
	return a.cfg.RiskFloorLow
}

// recommend renders the fixed summary template: regime, overall signal and
// the indicators behind it.
func recommend(a *models.AssetAnalysis) string {
	var b strings.Builder
	primary := a.Strategy.PrimarySignal
	fmt.Fprintf(&b, "%s: %s with %.0f%% confidence in a %s regime. ",
		a.Symbol, a.OverallSignal, a.Confidence, strings.ToLower(strings.ReplaceAll(string(a.Strategy.Regime), "_", " ")))
	fmt.Fprintf(&b, "%s leads (%s).", primary.Strategy, primary.Reasoning)
	if dominant := dominantIndicators(a.Indicators, a.OverallSignal); len(dominant) > 0 {
		fmt.Fprintf(&b, " Supported by %s.", strings.Join(dominant, ", "))
	}
	if a.Crash.IsCrashing {
		fmt.Fprintf(&b, " Crash warning (%s): %s", a.Crash.Severity, a.Crash.Recommendation)
	} else if a.Entry.IsOptimalEntry {
		b.WriteString(" " + a.Entry.Recommendation)
	}
	if a.Strategy.Degraded() {
		fmt.Fprintf(&b, " Excluded: %s.", strings.Join(a.Strategy.Excluded, ", "))
	}
	return b.String()
}

// dominantIndicators lists, by confidence, up to two indicators leaning the
// same way as the overall signal.
func dominantIndicators(set models.IndicatorSet, sig models.Signal) []string {
	bias := sig.Bias()
	var top [2]*models.IndicatorResult
	for _, r := range []*models.IndicatorResult{
		set.RSI, set.MACD, set.Bollinger, set.Stochastic, set.RVI, set.AO, set.ADX, set.SMA, set.EMA,
	} {
		if r == nil || r.Signal.Bias() != bias || bias == 0 {
			continue
		}
		switch {
		case top[0] == nil || r.Confidence > top[0].Confidence:
			top[1], top[0] = top[0], r
		case top[1] == nil || r.Confidence > top[1].Confidence:
			top[1] = r
		}
	}
	var out []string
	for _, r := range top {
		if r != nil {
			out = append(out, fmt.Sprintf("%s %s", r.Name, r.Signal))
		}
	}
	return out
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

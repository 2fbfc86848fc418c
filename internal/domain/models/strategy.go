package models

import (
	"encoding/json"
	"fmt"
)

// MetricFamily tags the concrete metric type a strategy emits.
type MetricFamily string

const (
	FamilyMomentum      MetricFamily = "MOMENTUM"
	FamilyMeanReversion MetricFamily = "MEAN_REVERSION"
	FamilyBreakout      MetricFamily = "BREAKOUT"
	FamilyTrend         MetricFamily = "TREND_FOLLOWING"
	FamilyOscillator    MetricFamily = "OSCILLATOR"
)

// StrategyMetrics is implemented by each strategy family's metric struct.
// Values exposes the same numbers by name for generic consumers.
type StrategyMetrics interface {
	Family() MetricFamily
	Values() map[string]float64
}

type MomentumMetrics struct {
	MACDHistogram float64 `json:"macd_histogram"`
	RSI           float64 `json:"rsi"`
	Change24h     float64 `json:"change_24h"`
}

func (MomentumMetrics) Family() MetricFamily { return FamilyMomentum }

func (m MomentumMetrics) Values() map[string]float64 {
	return map[string]float64{"macd_histogram": m.MACDHistogram, "rsi": m.RSI, "change_24h": m.Change24h}
}

type MeanReversionMetrics struct {
	RSI      float64 `json:"rsi"`
	PercentB float64 `json:"percent_b"`
	StochK   float64 `json:"stoch_k"`
}

func (MeanReversionMetrics) Family() MetricFamily { return FamilyMeanReversion }

func (m MeanReversionMetrics) Values() map[string]float64 {
	return map[string]float64{"rsi": m.RSI, "percent_b": m.PercentB, "stoch_k": m.StochK}
}

type BreakoutMetrics struct {
	UpperLevel  float64 `json:"upper_level"`
	LowerLevel  float64 `json:"lower_level"`
	VolumeRatio float64 `json:"volume_ratio"`
	ATRPercent  float64 `json:"atr_percent"`
}

func (BreakoutMetrics) Family() MetricFamily { return FamilyBreakout }

func (m BreakoutMetrics) Values() map[string]float64 {
	return map[string]float64{
		"upper_level":  m.UpperLevel,
		"lower_level":  m.LowerLevel,
		"volume_ratio": m.VolumeRatio,
		"atr_percent":  m.ATRPercent,
	}
}

type TrendMetrics struct {
	FastMA    float64 `json:"fast_ma"`
	SlowMA    float64 `json:"slow_ma"`
	ADX       float64 `json:"adx"`
	SpreadPct float64 `json:"spread_pct"`
}

func (TrendMetrics) Family() MetricFamily { return FamilyTrend }

func (m TrendMetrics) Values() map[string]float64 {
	return map[string]float64{"fast_ma": m.FastMA, "slow_ma": m.SlowMA, "adx": m.ADX, "spread_pct": m.SpreadPct}
}

type OscillatorMetrics struct {
	RVI       float64 `json:"rvi"`
	RVISignal float64 `json:"rvi_signal"`
	AO        float64 `json:"ao"`
	AOPrev    float64 `json:"ao_prev"`
}

func (OscillatorMetrics) Family() MetricFamily { return FamilyOscillator }

func (m OscillatorMetrics) Values() map[string]float64 {
	return map[string]float64{"rvi": m.RVI, "rvi_signal": m.RVISignal, "ao": m.AO, "ao_prev": m.AOPrev}
}

// StrategySignal is the output of one strategy for one analysis cycle.
type StrategySignal struct {
	Strategy   string
	Signal     Signal
	Confidence float64
	Reasoning  string
	Metrics    StrategyMetrics
}

type metricsEnvelope struct {
	Family MetricFamily    `json:"family"`
	Values json.RawMessage `json:"values"`
}

type strategySignalJSON struct {
	Strategy   string           `json:"strategy"`
	Signal     Signal           `json:"signal"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Metrics    *metricsEnvelope `json:"metrics,omitempty"`
}

func (s StrategySignal) MarshalJSON() ([]byte, error) {
	out := strategySignalJSON{
		Strategy:   s.Strategy,
		Signal:     s.Signal,
		Confidence: s.Confidence,
		Reasoning:  s.Reasoning,
	}
	if s.Metrics != nil {
		raw, err := json.Marshal(s.Metrics)
		if err != nil {
			return nil, fmt.Errorf("marshal metrics: %w", err)
		}
		out.Metrics = &metricsEnvelope{Family: s.Metrics.Family(), Values: raw}
	}
	return json.Marshal(out)
}

func (s *StrategySignal) UnmarshalJSON(b []byte) error {
	var in strategySignalJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	s.Strategy = in.Strategy
	s.Signal = in.Signal
	s.Confidence = in.Confidence
	s.Reasoning = in.Reasoning
	s.Metrics = nil
	if in.Metrics == nil {
		return nil
	}
	m, err := decodeMetrics(in.Metrics.Family, in.Metrics.Values)
	if err != nil {
		return err
	}
	s.Metrics = m
	return nil
}

func decodeMetrics(family MetricFamily, raw json.RawMessage) (StrategyMetrics, error) {
	switch family {
	case FamilyMomentum:
		var m MomentumMetrics
		err := json.Unmarshal(raw, &m)
		return m, err
	case FamilyMeanReversion:
		var m MeanReversionMetrics
		err := json.Unmarshal(raw, &m)
		return m, err
	case FamilyBreakout:
		var m BreakoutMetrics
		err := json.Unmarshal(raw, &m)
		return m, err
	case FamilyTrend:
		var m TrendMetrics
		err := json.Unmarshal(raw, &m)
		return m, err
	case FamilyOscillator:
		var m OscillatorMetrics
		err := json.Unmarshal(raw, &m)
		return m, err
	default:
		return nil, fmt.Errorf("unknown metric family %q", family)
	}
}

// StrategyResult is the fused output of the strategy executor.
type StrategyResult struct {
	Regime            MarketRegime     `json:"regime"`
	Signals           []StrategySignal `json:"signals"`
	PrimarySignal     StrategySignal   `json:"primary_signal"`
	OverallConfidence float64          `json:"overall_confidence"`
	RiskScore         float64          `json:"risk_score"`
	// Excluded names the strategies dropped for insufficient or invalid data.
	Excluded []string `json:"excluded,omitempty"`
}

// Degraded reports whether any strategy was excluded from the fusion.
func (r StrategyResult) Degraded() bool { return len(r.Excluded) > 0 }

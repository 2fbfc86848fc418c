package models

import "time"

type Severity string

const (
	SeverityLow     Severity = "LOW"
	SeverityMedium  Severity = "MEDIUM"
	SeverityHigh    Severity = "HIGH"
	SeverityExtreme Severity = "EXTREME"
)

// Rank orders severities from LOW (0) to EXTREME (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityExtreme:
		return 3
	}
	return 0
}

type CrashIndicators struct {
	RapidDrop       bool `json:"rapid_drop"`
	VolumeSpike     bool `json:"volume_spike"`
	OversoldExtreme bool `json:"oversold_extreme"`
	HighVolatility  bool `json:"high_volatility"`
}

// Count returns how many indicators fired.
func (c CrashIndicators) Count() int {
	return countTrue(c.RapidDrop, c.VolumeSpike, c.OversoldExtreme, c.HighVolatility)
}

type CrashSignal struct {
	IsCrashing     bool            `json:"is_crashing"`
	Severity       Severity        `json:"severity"`
	Confidence     float64         `json:"confidence"`
	Indicators     CrashIndicators `json:"indicators"`
	Recommendation string          `json:"recommendation"`
}

type Strength string

const (
	StrengthWeak       Strength = "WEAK"
	StrengthModerate   Strength = "MODERATE"
	StrengthStrong     Strength = "STRONG"
	StrengthVeryStrong Strength = "VERY_STRONG"
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

type EntryIndicators struct {
	TrendReversal    bool `json:"trend_reversal"`
	VolumeIncrease   bool `json:"volume_increase"`
	MomentumBuilding bool `json:"momentum_building"`
	// Divergence is a bullish divergence for longs and a bearish one for shorts.
	Divergence bool `json:"bullish_divergence"`
}

func (e EntryIndicators) Count() int {
	return countTrue(e.TrendReversal, e.VolumeIncrease, e.MomentumBuilding, e.Divergence)
}

// EntrySignal describes an entry setup. When IsOptimalEntry is true the
// prices are ordered by Direction: target > entry > stop for LONG and the
// reverse for SHORT.
type EntrySignal struct {
	IsOptimalEntry bool            `json:"is_optimal_entry"`
	Direction      Direction       `json:"direction"`
	Strength       Strength        `json:"strength"`
	Confidence     float64         `json:"confidence"`
	Indicators     EntryIndicators `json:"indicators"`
	EntryPrice     float64         `json:"entry_price"`
	TargetPrice    float64         `json:"target_price"`
	StopLoss       float64         `json:"stop_loss"`
	RiskReward     float64         `json:"risk_reward"`
	Recommendation string          `json:"recommendation"`
}

// AssetAnalysis is the engine's complete output for one symbol.
type AssetAnalysis struct {
	Symbol         string         `json:"symbol"`
	Timestamp      time.Time      `json:"timestamp"`
	Snapshot       PriceSnapshot  `json:"snapshot"`
	Strategy       StrategyResult `json:"strategy"`
	Crash          CrashSignal    `json:"crash"`
	Entry          EntrySignal    `json:"entry"`
	Indicators     IndicatorSet   `json:"indicators"`
	OverallSignal  Signal         `json:"overall_signal"`
	Confidence     float64        `json:"confidence"`
	RiskScore      float64        `json:"risk_score"`
	Recommendation string         `json:"recommendation"`
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

package strategy

import (
	"fmt"
	"math"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/services/features"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/pkg/config"
)

const (
	NameMomentum       = "MOMENTUM"
	NameMeanReversion  = "MEAN_REVERSION"
	NameBreakout       = "BREAKOUT"
	NameTrendFollowing = "TREND_FOLLOWING"
	NameOscillator     = "OSCILLATOR"
)

// Registry returns the fixed strategy set in evaluation order.
func Registry(calc *indicators.Calculator, cfg config.StrategyConfig) []domsvc.Strategy {
	return []domsvc.Strategy{
		&Momentum{calc: calc, th: cfg.Momentum},
		&MeanReversion{calc: calc, th: cfg.MeanReversion},
		&Breakout{calc: calc, window: cfg.BreakoutWindow, th: cfg.Breakout},
		&TrendFollowing{calc: calc, th: cfg.TrendFollowing},
		&Oscillator{calc: calc},
	}
}

// signalFromScore maps a score in [-limit, limit] onto the signal scale;
// only a full score is strong.
func signalFromScore(score, limit int) models.Signal {
	switch {
	case score >= limit:
		return models.StrongBuy
	case score > 0:
		return models.Buy
	case score <= -limit:
		return models.StrongSell
	case score < 0:
		return models.Sell
	}
	return models.Hold
}

func vote(cond bool, v int) int {
	if cond {
		return v
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func conf(v float64) float64 { return indicators.Round(indicators.Confidence(v), 2) }

func validated(data models.MarketData) error {
	if len(data.Candles) == 0 {
		return errs.NewInsufficientData("candles", 1, 0)
	}
	return indicators.ValidateCandles(data.Candles)
}

// Momentum follows the MACD histogram, RSI strength and the 24h change.
type Momentum struct {
	calc *indicators.Calculator
	th   config.MomentumThresholds
}

func (s *Momentum) Name() string { return NameMomentum }

func (s *Momentum) Affinity() []models.MarketRegime {
	return []models.MarketRegime{models.BullMarket, models.BearMarket, models.Trending}
}

func (s *Momentum) Evaluate(data models.MarketData) (models.StrategySignal, error) {
	if err := validated(data); err != nil {
		return models.StrategySignal{}, err
	}
	_, macd, err := s.calc.MACD(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	rsi, err := s.calc.RSI(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	change := data.Snapshot.Change24h

	score := vote(macd.Histogram > 0, 1) + vote(macd.Histogram < 0, -1) +
		vote(change > s.th.ChangePct, 1) + vote(change < -s.th.ChangePct, -1) +
		vote(rsi.Value > s.th.RSIBuy, 1) + vote(rsi.Value < s.th.RSISell, -1)
	sig := signalFromScore(score, 3)

	return models.StrategySignal{
		Strategy:   s.Name(),
		Signal:     sig,
		Confidence: conf(float64(abs(score))/3*70 + math.Min(30, math.Abs(change)*2)),
		Reasoning: fmt.Sprintf("MACD histogram %.4f, RSI %.2f, 24h change %.2f%%",
			macd.Histogram, rsi.Value, change),
		Metrics: models.MomentumMetrics{MACDHistogram: macd.Histogram, RSI: rsi.Value, Change24h: change},
	}, nil
}

// MeanReversion fades stretched RSI, Bollinger %B and stochastic readings.
type MeanReversion struct {
	calc *indicators.Calculator
	th   config.MeanReversionThresholds
}

func (s *MeanReversion) Name() string { return NameMeanReversion }

func (s *MeanReversion) Affinity() []models.MarketRegime {
	return []models.MarketRegime{models.MeanReversion, models.Sideways, models.LowVolatility}
}

func (s *MeanReversion) Evaluate(data models.MarketData) (models.StrategySignal, error) {
	if err := validated(data); err != nil {
		return models.StrategySignal{}, err
	}
	rsi, err := s.calc.RSI(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	_, bb, err := s.calc.Bollinger(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	_, st, err := s.calc.Stochastic(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}

	th := s.th
	score := vote(rsi.Value < th.RSIOversold, 1) + vote(rsi.Value > th.RSIOverbought, -1) +
		vote(bb.PercentB < th.PercentBLow, 1) + vote(bb.PercentB > th.PercentBHigh, -1) +
		vote(st.K < th.StochOversold, 1) + vote(st.K > th.StochOverbought, -1)

	return models.StrategySignal{
		Strategy:   s.Name(),
		Signal:     signalFromScore(score, 3),
		Confidence: conf(float64(abs(score))/3*60 + math.Abs(rsi.Value-50)*0.8),
		Reasoning: fmt.Sprintf("RSI %.2f, Bollinger %%B %.3f, stochastic %%K %.2f",
			rsi.Value, bb.PercentB, st.K),
		Metrics: models.MeanReversionMetrics{RSI: rsi.Value, PercentB: bb.PercentB, StochK: st.K},
	}, nil
}

// Breakout trades closes beyond the prior window's range, confirmed by volume.
type Breakout struct {
	calc   *indicators.Calculator
	window int
	th     config.BreakoutThresholds
}

func (s *Breakout) Name() string { return NameBreakout }

func (s *Breakout) Affinity() []models.MarketRegime {
	return []models.MarketRegime{models.HighVolatility, models.Trending}
}

func (s *Breakout) Evaluate(data models.MarketData) (models.StrategySignal, error) {
	if err := validated(data); err != nil {
		return models.StrategySignal{}, err
	}
	n := len(data.Candles)
	if n < s.window+1 {
		return models.StrategySignal{}, errs.NewInsufficientData("breakout", s.window+1, n)
	}
	prior := data.Candles[n-1-s.window : n-1]
	_, upper := features.MinMax(features.Highs(prior))
	lower, _ := features.MinMax(features.Lows(prior))
	closeNow := data.Candles[n-1].Close

	volRatio, err := s.calc.VolumeRatio(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	_, atr, err := s.calc.ATR(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}

	confirmed := volRatio >= s.th.VolumeRatio
	var (
		sig      = models.Hold
		distance float64
		reason   string
	)
	switch {
	case closeNow > upper:
		distance = (closeNow - upper) / upper * 100
		sig = models.Buy
		if confirmed {
			sig = models.StrongBuy
		}
		reason = fmt.Sprintf("close %.4f broke above %d-bar high %.4f", closeNow, s.window, upper)
	case closeNow < lower:
		distance = (lower - closeNow) / lower * 100
		sig = models.Sell
		if confirmed {
			sig = models.StrongSell
		}
		reason = fmt.Sprintf("close %.4f broke below %d-bar low %.4f", closeNow, s.window, lower)
	default:
		reason = fmt.Sprintf("close %.4f inside %d-bar range %.4f-%.4f", closeNow, s.window, lower, upper)
	}

	confidence := 20.0
	if sig != models.Hold {
		confidence = 50 + float64(vote(confirmed, 30)) + math.Min(20, distance*10)
	}
	return models.StrategySignal{
		Strategy:   s.Name(),
		Signal:     sig,
		Confidence: conf(confidence),
		Reasoning:  fmt.Sprintf("%s, volume x%.2f, ATR %.2f%%", reason, volRatio, atr.Percent),
		Metrics: models.BreakoutMetrics{
			UpperLevel: upper, LowerLevel: lower, VolumeRatio: volRatio, ATRPercent: atr.Percent,
		},
	}, nil
}

// TrendFollowing reads the EMA/SMA stack and uses ADX as trend strength.
type TrendFollowing struct {
	calc *indicators.Calculator
	th   config.TrendFollowingThresholds
}

func (s *TrendFollowing) Name() string { return NameTrendFollowing }

func (s *TrendFollowing) Affinity() []models.MarketRegime {
	return []models.MarketRegime{models.BullMarket, models.BearMarket, models.Trending}
}

func (s *TrendFollowing) Evaluate(data models.MarketData) (models.StrategySignal, error) {
	if err := validated(data); err != nil {
		return models.StrategySignal{}, err
	}
	cfg := s.calc.Config()
	closes := features.Closes(data.Candles)
	fast, err := indicators.LastEMA(closes, cfg.EMAPeriod)
	if err != nil {
		return models.StrategySignal{}, err
	}
	slow, err := indicators.LastSMA(closes, cfg.SlowSMAPeriod)
	if err != nil {
		return models.StrategySignal{}, err
	}
	_, adx, err := s.calc.ADX(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	if slow <= 0 {
		return models.StrategySignal{}, &errs.CalculationError{Op: "trend_following", Err: fmt.Errorf("slow average %v", slow)}
	}

	price := closes[len(closes)-1]
	spread := indicators.Round((fast-slow)/slow*100, 2)
	score := vote(fast > slow, 1) + vote(fast < slow, -1) +
		vote(price > fast && fast > slow, 1) + vote(price < fast && fast < slow, -1)
	if adx.ADX >= s.th.StrongADX {
		score += vote(score > 0, 1) + vote(score < 0, -1)
	}

	return models.StrategySignal{
		Strategy:   s.Name(),
		Signal:     signalFromScore(score, 3),
		Confidence: conf(float64(abs(score))/3*50 + adx.ADX),
		Reasoning:  fmt.Sprintf("EMA%d %.4f vs SMA%d %.4f (%.2f%%), ADX %.2f", cfg.EMAPeriod, fast, cfg.SlowSMAPeriod, slow, spread, adx.ADX),
		Metrics:    models.TrendMetrics{FastMA: fast, SlowMA: slow, ADX: adx.ADX, SpreadPct: spread},
	}, nil
}

// Oscillator combines RVI and Awesome Oscillator crossovers.
type Oscillator struct{ calc *indicators.Calculator }

func (s *Oscillator) Name() string { return NameOscillator }

func (s *Oscillator) Affinity() []models.MarketRegime {
	return []models.MarketRegime{models.Sideways, models.MeanReversion, models.LowVolatility}
}

func (s *Oscillator) Evaluate(data models.MarketData) (models.StrategySignal, error) {
	if err := validated(data); err != nil {
		return models.StrategySignal{}, err
	}
	_, rvi, err := s.calc.RVI(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}
	_, ao, err := s.calc.AO(data.Candles)
	if err != nil {
		return models.StrategySignal{}, err
	}

	score := crossVote(rvi.Cross) + crossVote(ao.Cross) +
		vote(ao.Value > 0 && ao.Value > ao.PrevValue, 1) + vote(ao.Value < 0 && ao.Value < ao.PrevValue, -1)

	return models.StrategySignal{
		Strategy:   s.Name(),
		Signal:     signalFromScore(score, 3),
		Confidence: conf(float64(abs(score)) / 3 * 90),
		Reasoning:  fmt.Sprintf("RVI %s cross (%.3f/%.3f), AO %s cross (%.3f)", rvi.Cross, rvi.Value, rvi.Signal, ao.Cross, ao.Value),
		Metrics:    models.OscillatorMetrics{RVI: rvi.Value, RVISignal: rvi.Signal, AO: ao.Value, AOPrev: ao.PrevValue},
	}, nil
}

func crossVote(c indicators.Cross) int {
	switch c {
	case indicators.CrossBullish:
		return 1
	case indicators.CrossBearish:
		return -1
	}
	return 0
}

var (
	_ domsvc.Strategy = (*Momentum)(nil)
	_ domsvc.Strategy = (*MeanReversion)(nil)
	_ domsvc.Strategy = (*Breakout)(nil)
	_ domsvc.Strategy = (*TrendFollowing)(nil)
	_ domsvc.Strategy = (*Oscillator)(nil)
)

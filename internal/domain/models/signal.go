package models

// Signal is the qualitative direction of an indicator or strategy.
type Signal string

const (
	StrongBuy  Signal = "STRONG_BUY"
	Buy        Signal = "BUY"
	Hold       Signal = "HOLD"
	Sell       Signal = "SELL"
	StrongSell Signal = "STRONG_SELL"
)

// Signals lists every Signal value.
var Signals = []Signal{StrongBuy, Buy, Hold, Sell, StrongSell}

func (s Signal) Valid() bool {
	switch s {
	case StrongBuy, Buy, Hold, Sell, StrongSell:
		return true
	}
	return false
}

func (s Signal) IsBullish() bool { return s == Buy || s == StrongBuy }

func (s Signal) IsBearish() bool { return s == Sell || s == StrongSell }

// Bias is +1 for bullish, -1 for bearish and 0 for HOLD.
func (s Signal) Bias() int {
	switch {
	case s.IsBullish():
		return 1
	case s.IsBearish():
		return -1
	}
	return 0
}

// IndicatorResult is one indicator reading. Value is in the indicator's raw
// unit; Confidence is within [0,100].
type IndicatorResult struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// IndicatorSet holds the readings one analysis cycle was built from. A nil
// entry means the window was too short for that indicator.
type IndicatorSet struct {
	RSI         *IndicatorResult `json:"rsi,omitempty"`
	MACD        *IndicatorResult `json:"macd,omitempty"`
	Bollinger   *IndicatorResult `json:"bollinger,omitempty"`
	Stochastic  *IndicatorResult `json:"stochastic,omitempty"`
	RVI         *IndicatorResult `json:"rvi,omitempty"`
	AO          *IndicatorResult `json:"ao,omitempty"`
	ATR         *IndicatorResult `json:"atr,omitempty"`
	ADX         *IndicatorResult `json:"adx,omitempty"`
	SMA         *IndicatorResult `json:"sma,omitempty"`
	EMA         *IndicatorResult `json:"ema,omitempty"`
	VolumeRatio float64          `json:"volume_ratio"`
}

// MarketRegime is a discrete classification of current market behavior.
type MarketRegime string

const (
	BullMarket     MarketRegime = "BULL_MARKET"
	BearMarket     MarketRegime = "BEAR_MARKET"
	Trending       MarketRegime = "TRENDING"
	Sideways       MarketRegime = "SIDEWAYS"
	MeanReversion  MarketRegime = "MEAN_REVERSION"
	LowVolatility  MarketRegime = "LOW_VOLATILITY"
	HighVolatility MarketRegime = "HIGH_VOLATILITY"
)

// Regimes lists every MarketRegime value.
var Regimes = []MarketRegime{
	BullMarket, BearMarket, Trending, Sideways, MeanReversion, LowVolatility, HighVolatility,
}

func (r MarketRegime) Valid() bool {
	for _, v := range Regimes {
		if v == r {
			return true
		}
	}
	return false
}

// Describe returns the phrase used in recommendations.
func (r MarketRegime) Describe() string {
	switch r {
	case BullMarket:
		return "bull market"
	case BearMarket:
		return "bear market"
	case Trending:
		return "trending market"
	case MeanReversion:
		return "range-bound market"
	case LowVolatility:
		return "quiet market"
	case HighVolatility:
		return "highly volatile market"
	default:
		return "sideways market"
	}
}

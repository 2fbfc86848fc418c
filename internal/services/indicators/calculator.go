package indicators

import (
	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/services/features"
	"SignalEngine/pkg/config"
)

// Calculator applies the configured periods to a candle window and returns
// rounded, classified results.
type Calculator struct {
	cfg config.IndicatorConfig
}

func NewCalculator(cfg config.IndicatorConfig) *Calculator {
	if cfg.Precision == 0 {
		cfg.Precision = DefaultPrecision
	}
	return &Calculator{cfg: cfg}
}

// Config returns the periods in use.
func (c *Calculator) Config() config.IndicatorConfig { return c.cfg }

func (c *Calculator) round(v float64) float64 { return Round(v, c.cfg.Precision) }

func (c *Calculator) result(name string, v float64, classify func(float64) (models.Signal, float64)) *models.IndicatorResult {
	v = c.round(v)
	sig, conf := classify(v)
	return &models.IndicatorResult{Name: name, Value: v, Signal: sig, Confidence: c.round(conf)}
}

func (c *Calculator) RSI(candles []models.Candle) (*models.IndicatorResult, error) {
	v, err := RSI(features.Closes(candles), c.cfg.RSIPeriod)
	if err != nil {
		return nil, err
	}
	return c.result("RSI", v, classifyRSI), nil
}

func (c *Calculator) MACD(candles []models.Candle) (*models.IndicatorResult, MACDResult, error) {
	r, err := MACD(features.Closes(candles), c.cfg.MACDFast, c.cfg.MACDSlow, c.cfg.MACDSignal)
	if err != nil {
		return nil, MACDResult{}, err
	}
	r.MACD, r.Signal, r.Histogram = c.round(r.MACD), c.round(r.Signal), c.round(r.Histogram)
	sig, conf := classifyMACD(r)
	return &models.IndicatorResult{Name: "MACD", Value: r.Histogram, Signal: sig, Confidence: c.round(conf)}, r, nil
}

func (c *Calculator) Bollinger(candles []models.Candle) (*models.IndicatorResult, BollingerResult, error) {
	r, err := Bollinger(features.Closes(candles), c.cfg.BollingerPeriod, c.cfg.BollingerK)
	if err != nil {
		return nil, BollingerResult{}, err
	}
	// %B is rounded at three decimals regardless of precision. It falls outside
	// [0,1] whenever the close is beyond a band.
	r.PercentB = Round(r.PercentB, 3)
	return c.resultRaw("BOLLINGER_PERCENT_B", r.PercentB, classifyPercentB), r, nil
}

func (c *Calculator) resultRaw(name string, v float64, classify func(float64) (models.Signal, float64)) *models.IndicatorResult {
	sig, conf := classify(v)
	return &models.IndicatorResult{Name: name, Value: v, Signal: sig, Confidence: c.round(conf)}
}

func (c *Calculator) Stochastic(candles []models.Candle) (*models.IndicatorResult, StochasticResult, error) {
	r, err := Stochastic(features.Highs(candles), features.Lows(candles), features.Closes(candles),
		c.cfg.StochK, c.cfg.StochSlowK, c.cfg.StochD)
	if err != nil {
		return nil, StochasticResult{}, err
	}
	r.K, r.D = c.round(r.K), c.round(r.D)
	sig, conf := classifyStochastic(r)
	return &models.IndicatorResult{Name: "STOCHASTIC", Value: r.K, Signal: sig, Confidence: c.round(conf)}, r, nil
}

func (c *Calculator) RVI(candles []models.Candle) (*models.IndicatorResult, OscillatorResult, error) {
	r, err := RVI(candles, c.cfg.RVIPeriod)
	if err != nil {
		return nil, OscillatorResult{}, err
	}
	return c.oscillator("RVI", r)
}

func (c *Calculator) AO(candles []models.Candle) (*models.IndicatorResult, OscillatorResult, error) {
	r, err := AwesomeOscillator(candles, c.cfg.AOFast, c.cfg.AOSlow)
	if err != nil {
		return nil, OscillatorResult{}, err
	}
	return c.oscillator("AO", r)
}

// oscillator rounds at three decimals since RVI lives around [-1,1].
func (c *Calculator) oscillator(name string, r OscillatorResult) (*models.IndicatorResult, OscillatorResult, error) {
	r.Value, r.Signal = Round(r.Value, 3), Round(r.Signal, 3)
	r.PrevValue, r.PrevSignal = Round(r.PrevValue, 3), Round(r.PrevSignal, 3)
	r.Cross = Crossover(r.PrevValue, r.PrevSignal, r.Value, r.Signal)
	sig, conf := classifyOscillator(r)
	return &models.IndicatorResult{Name: name, Value: r.Value, Signal: sig, Confidence: c.round(conf)}, r, nil
}

func (c *Calculator) ATR(candles []models.Candle) (*models.IndicatorResult, ATRResult, error) {
	r, err := ATR(features.Highs(candles), features.Lows(candles), features.Closes(candles), c.cfg.ATRPeriod)
	if err != nil {
		return nil, ATRResult{}, err
	}
	r.ATR, r.Percent = c.round(r.ATR), c.round(r.Percent)
	return &models.IndicatorResult{
		Name:       "ATR_PERCENT",
		Value:      r.Percent,
		Signal:     models.Hold,
		Confidence: c.round(Confidence(r.Percent * 20)),
	}, r, nil
}

func (c *Calculator) ADX(candles []models.Candle) (*models.IndicatorResult, ADXResult, error) {
	r, err := ADX(features.Highs(candles), features.Lows(candles), features.Closes(candles), c.cfg.ADXPeriod)
	if err != nil {
		return nil, ADXResult{}, err
	}
	r.ADX, r.PlusDI, r.MinusDI = c.round(r.ADX), c.round(r.PlusDI), c.round(r.MinusDI)
	sig, conf := classifyADX(r)
	return &models.IndicatorResult{Name: "ADX", Value: r.ADX, Signal: sig, Confidence: c.round(conf)}, r, nil
}

// SMA reports price distance from the simple moving average, in percent.
func (c *Calculator) SMA(candles []models.Candle) (*models.IndicatorResult, error) {
	closes := features.Closes(candles)
	ma, err := LastSMA(closes, c.cfg.SMAPeriod)
	if err != nil {
		return nil, err
	}
	return c.distance("SMA", last(closes), ma), nil
}

// EMA reports price distance from the exponential moving average, in percent.
func (c *Calculator) EMA(candles []models.Candle) (*models.IndicatorResult, error) {
	closes := features.Closes(candles)
	ma, err := LastEMA(closes, c.cfg.EMAPeriod)
	if err != nil {
		return nil, err
	}
	return c.distance("EMA", last(closes), ma), nil
}

func (c *Calculator) distance(name string, price, ma float64) *models.IndicatorResult {
	pct := 0.0
	if ma > 0 {
		pct = (price - ma) / ma * 100
	}
	return c.result(name, pct, classifyDistance)
}

func (c *Calculator) VolumeRatio(candles []models.Candle) (float64, error) {
	r, err := VolumeRatio(features.Volumes(candles), c.cfg.VolumePeriod)
	if err != nil {
		return 0, err
	}
	return c.round(r), nil
}

// Compute evaluates every indicator over the window. Indicators whose
// minimum length is not met are left nil.
func (c *Calculator) Compute(candles []models.Candle) models.IndicatorSet {
	var set models.IndicatorSet
	set.RSI, _ = c.RSI(candles)
	set.MACD, _, _ = c.MACD(candles)
	set.Bollinger, _, _ = c.Bollinger(candles)
	set.Stochastic, _, _ = c.Stochastic(candles)
	set.RVI, _, _ = c.RVI(candles)
	set.AO, _, _ = c.AO(candles)
	set.ATR, _, _ = c.ATR(candles)
	set.ADX, _, _ = c.ADX(candles)
	set.SMA, _ = c.SMA(candles)
	set.EMA, _ = c.EMA(candles)
	set.VolumeRatio, _ = c.VolumeRatio(candles)
	return set
}

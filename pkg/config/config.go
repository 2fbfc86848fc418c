package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	applogger "SignalEngine/pkg/logger"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Log         applogger.Config `yaml:"log"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Engine      EngineConfig     `yaml:"engine"`
	Cache       CacheConfig      `yaml:"cache"`
	Providers   ProvidersConfig  `yaml:"providers"`
	Binance     BinanceConfig    `yaml:"binance"`
	Refresh     RefreshConfig    `yaml:"refresh"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Redis       RedisConfig      `yaml:"redis"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	// Per-client request budget for the analysis API.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" default:"10" validate:"gt=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" default:"20" validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// EngineConfig groups every tunable of the signal engine. None of the
// thresholds are statistically validated; they are defaults.
type EngineConfig struct {
	Indicators IndicatorConfig `yaml:"indicators"`
	Regime     RegimeConfig    `yaml:"regime"`
	Strategy   StrategyConfig  `yaml:"strategy"`
	Crash      CrashConfig     `yaml:"crash"`
	Entry      EntryConfig     `yaml:"entry"`
	// CandleInterval and CandleLimit describe the primary indicator window.
	CandleInterval string `yaml:"candle_interval" default:"1h" validate:"required"`
	CandleLimit    int    `yaml:"candle_limit" default:"120" validate:"gte=60"`
	// LongInterval and LongLimit describe the optional regime window.
	LongInterval string `yaml:"long_interval" default:"4h" validate:"required"`
	LongLimit    int    `yaml:"long_limit" default:"100" validate:"gte=30"`
}

type IndicatorConfig struct {
	RSIPeriod       int     `yaml:"rsi_period" default:"14" validate:"gte=2"`
	SMAPeriod       int     `yaml:"sma_period" default:"20" validate:"gte=2"`
	EMAPeriod       int     `yaml:"ema_period" default:"20" validate:"gte=2"`
	SlowSMAPeriod   int     `yaml:"slow_sma_period" default:"50" validate:"gte=2"`
	MACDFast        int     `yaml:"macd_fast" default:"12" validate:"gte=2"`
	MACDSlow        int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal      int     `yaml:"macd_signal" default:"9" validate:"gte=2"`
	StochK          int     `yaml:"stoch_k" default:"14" validate:"gte=2"`
	StochSlowK      int     `yaml:"stoch_slow_k" default:"3" validate:"gte=1"`
	StochD          int     `yaml:"stoch_d" default:"3" validate:"gte=1"`
	RVIPeriod       int     `yaml:"rvi_period" default:"10" validate:"gte=2"`
	AOFast          int     `yaml:"ao_fast" default:"5" validate:"gte=2"`
	AOSlow          int     `yaml:"ao_slow" default:"34" validate:"gtfield=AOFast"`
	BollingerPeriod int     `yaml:"bollinger_period" default:"20" validate:"gte=2"`
	BollingerK      float64 `yaml:"bollinger_k" default:"2" validate:"gt=0"`
	ATRPeriod       int     `yaml:"atr_period" default:"14" validate:"gte=2"`
	ADXPeriod       int     `yaml:"adx_period" default:"14" validate:"gte=2"`
	VolumePeriod    int     `yaml:"volume_period" default:"20" validate:"gte=2"`
	Precision       int32   `yaml:"precision" default:"2" validate:"gte=2,lte=3"`
}

type RegimeConfig struct {
	HighVolSpreadPct  float64 `yaml:"high_vol_spread_pct" default:"10"`
	HighVolChangePct  float64 `yaml:"high_vol_change_pct" default:"5"`
	LowVolSpreadPct   float64 `yaml:"low_vol_spread_pct" default:"2"`
	TrendChangePct    float64 `yaml:"trend_change_pct" default:"5"`
	ADXTrending       float64 `yaml:"adx_trending" default:"25"`
	RangeSpreadPct    float64 `yaml:"range_spread_pct" default:"6"`
	RangeRSILow       float64 `yaml:"range_rsi_low" default:"40"`
	RangeRSIHigh      float64 `yaml:"range_rsi_high" default:"60"`
	RangeMaxChangePct float64 `yaml:"range_max_change_pct" default:"3"`
}

type StrategyConfig struct {
	PrimaryWeight      float64 `yaml:"primary_weight" default:"0.6" validate:"gte=0,lte=1"`
	AgreementWeight    float64 `yaml:"agreement_weight" default:"0.4" validate:"gte=0,lte=1"`
	ATRRiskWeight      float64 `yaml:"atr_risk_weight" default:"4"`
	DisagreementWeight float64 `yaml:"disagreement_weight" default:"30"`
	// Baseline risk per regime, keyed by regime name.
	RiskBaseline   map[string]float64 `yaml:"risk_baseline"`
	BreakoutWindow int                `yaml:"breakout_window" default:"20" validate:"gte=5"`

	Momentum       MomentumThresholds       `yaml:"momentum"`
	MeanReversion  MeanReversionThresholds  `yaml:"mean_reversion"`
	Breakout       BreakoutThresholds       `yaml:"breakout"`
	TrendFollowing TrendFollowingThresholds `yaml:"trend_following"`
}

// MomentumThresholds set where the 24h change and RSI start voting.
type MomentumThresholds struct {
	ChangePct float64 `yaml:"change_pct" default:"2" validate:"gte=0"`
	RSIBuy    float64 `yaml:"rsi_buy" default:"55" validate:"gtfield=RSISell,lte=100"`
	RSISell   float64 `yaml:"rsi_sell" default:"45" validate:"gte=0"`
}

// MeanReversionThresholds are the oversold and overbought bounds faded by the
// mean reversion strategy.
type MeanReversionThresholds struct {
	RSIOversold     float64 `yaml:"rsi_oversold" default:"30" validate:"gte=0"`
	RSIOverbought   float64 `yaml:"rsi_overbought" default:"70" validate:"gtfield=RSIOversold,lte=100"`
	PercentBLow     float64 `yaml:"percent_b_low" default:"0.05"`
	PercentBHigh    float64 `yaml:"percent_b_high" default:"0.95" validate:"gtfield=PercentBLow"`
	StochOversold   float64 `yaml:"stoch_oversold" default:"20" validate:"gte=0"`
	StochOverbought float64 `yaml:"stoch_overbought" default:"80" validate:"gtfield=StochOversold,lte=100"`
}

type BreakoutThresholds struct {
	// Volume over its average needed to call a breakout strong.
	VolumeRatio float64 `yaml:"volume_ratio" default:"1.5" validate:"gt=0"`
}

type TrendFollowingThresholds struct {
	// ADX at or above which a trend vote is reinforced.
	StrongADX float64 `yaml:"strong_adx" default:"25" validate:"gte=0,lte=100"`
}

type CrashConfig struct {
	RapidDropPct        float64 `yaml:"rapid_drop_pct" default:"-8" validate:"lt=0"`
	SecondaryDropPct    float64 `yaml:"secondary_drop_pct" default:"-12" validate:"ltfield=RapidDropPct"`
	TertiaryDropPct     float64 `yaml:"tertiary_drop_pct" default:"-20" validate:"ltfield=SecondaryDropPct"`
	VolumeSpikeMultiple float64 `yaml:"volume_spike_multiple" default:"2" validate:"gt=1"`
	RSIOversold         float64 `yaml:"rsi_oversold" default:"25"`
	VolatilitySpreadPct float64 `yaml:"volatility_spread_pct" default:"10"`
	ConfidencePenalty   float64 `yaml:"confidence_penalty" default:"0.5" validate:"gte=0,lte=1"`
	RiskFloorLow        float64 `yaml:"risk_floor_low" default:"55"`
	RiskFloorMedium     float64 `yaml:"risk_floor_medium" default:"65"`
	RiskFloorHigh       float64 `yaml:"risk_floor_high" default:"80"`
	RiskFloorExtreme    float64 `yaml:"risk_floor_extreme" default:"95"`
}

type EntryConfig struct {
	FastEMA            int     `yaml:"fast_ema" default:"9" validate:"gte=2"`
	SlowEMA            int     `yaml:"slow_ema" default:"21" validate:"gtfield=FastEMA"`
	VolumeIncrease     float64 `yaml:"volume_increase" default:"1.5" validate:"gt=1"`
	DivergenceLookback int     `yaml:"divergence_lookback" default:"10" validate:"gte=4"`
	TargetATRMultiple  float64 `yaml:"target_atr_multiple" default:"3" validate:"gt=0"`
	StopATRMultiple    float64 `yaml:"stop_atr_multiple" default:"1.5" validate:"gt=0"`
	DefaultStopPct     float64 `yaml:"default_stop_pct" default:"2" validate:"gt=0"`
	MinRiskReward      float64 `yaml:"min_risk_reward" default:"1.5" validate:"gt=0"`
}

// CategoryConfig is the TTL and capacity of one cache category.
type CategoryConfig struct {
	TTL      time.Duration `yaml:"ttl" validate:"gt=0"`
	Capacity int           `yaml:"capacity" validate:"gt=0"`
}

type CacheConfig struct {
	Analysis CategoryConfig `yaml:"analysis"`
	Snapshot CategoryConfig `yaml:"snapshot"`
	Candles  CategoryConfig `yaml:"candles"`
	// L2 keeps analyses in Redis so several replicas share them.
	L2Enabled bool `yaml:"l2_enabled" default:"false"`
}

// SetDefaults implements defaults.Setter.
func (c *CacheConfig) SetDefaults() {
	setCategory(&c.Analysis, 60*time.Second, 512)
	setCategory(&c.Snapshot, 15*time.Second, 1024)
	setCategory(&c.Candles, 60*time.Second, 512)
}

func setCategory(c *CategoryConfig, ttl time.Duration, capacity int) {
	if c.TTL == 0 {
		c.TTL = ttl
	}
	if c.Capacity == 0 {
		c.Capacity = capacity
	}
}

type ProvidersConfig struct {
	// Candles selects the candle source: binance or clickhouse.
	Candles string `yaml:"candles" default:"binance" validate:"oneof=binance clickhouse"`
	// Stream enables the websocket ticker feed for snapshots.
	Stream bool `yaml:"stream" default:"true"`
}

type BinanceConfig struct {
	BaseURL        string        `yaml:"base_url" default:"https://api.binance.com" validate:"url"`
	WebSocketURL   string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/stream" validate:"url"`
	Timeout        time.Duration `yaml:"timeout" default:"8s" validate:"gt=0"`
	RPS            float64       `yaml:"rps" default:"10" validate:"gt=0"`
	Burst          int           `yaml:"burst" default:"20" validate:"gt=0"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	// Ceiling for the backoff between failed reconnects.
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay" default:"1m"`
	PingInterval      time.Duration `yaml:"ping_interval" default:"30s"`
	// Consecutive failures before the circuit opens.
	BreakerFailures uint32        `yaml:"breaker_failures" default:"5" validate:"gt=0"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" default:"30s"`
	QuoteAsset      string        `yaml:"quote_asset" default:"USDT"`
}

type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled" default:"true"`
	Symbols  []string      `yaml:"symbols" default:"[\"BTC\",\"ETH\",\"SOL\"]"`
	// Must stay below cache.analysis.ttl so entries are replaced before
	// they expire.
	Interval time.Duration `yaml:"interval" default:"45s" validate:"gt=0"`
	Workers  int           `yaml:"workers" default:"4" validate:"gt=0"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled" default:"false"`
	Brokers      []string      `yaml:"brokers" default:"[\"localhost:9092\"]"`
	Topic        string        `yaml:"topic" default:"signals.analysis"`
	RequiredAcks int           `yaml:"required_acks" default:"1"`
	Compression  string        `yaml:"compression" default:"snappy"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	Linger       time.Duration `yaml:"linger" default:"50ms"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	Async        bool          `yaml:"async" default:"false"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"signals"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"candles"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" default:"0"`
	Prefix   string `yaml:"prefix" default:"signals"`
}

var validate = validator.New()

// Default returns a configuration populated from struct defaults only.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	c.applyDerived()
	return c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDerived()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDerived()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SIGNAL_SYMBOLS"); v != "" {
		c.Refresh.Symbols = splitList(v)
	}
	if v := os.Getenv("SIGNAL_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Cache.L2Enabled = true
	}
	if v := os.Getenv("SIGNAL_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("SIGNAL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// applyDerived fills values that struct tags cannot express.
func (c *Config) applyDerived() {
	if len(c.Engine.Strategy.RiskBaseline) == 0 {
		c.Engine.Strategy.RiskBaseline = DefaultRiskBaseline()
	}
	for i, s := range c.Refresh.Symbols {
		c.Refresh.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// DefaultRiskBaseline is the starting risk per regime before volatility and
// disagreement are added.
func DefaultRiskBaseline() map[string]float64 {
	return map[string]float64{
		"HIGH_VOLATILITY": 60,
		"BEAR_MARKET":     50,
		"TRENDING":        35,
		"BULL_MARKET":     30,
		"SIDEWAYS":        25,
		"MEAN_REVERSION":  25,
		"LOW_VOLATILITY":  15,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Engine.Strategy.PrimaryWeight+c.Engine.Strategy.AgreementWeight <= 0 {
		return fmt.Errorf("engine.strategy: confidence weights must not both be zero")
	}
	if c.Refresh.Enabled && len(c.Refresh.Symbols) == 0 {
		return fmt.Errorf("refresh.symbols cannot be empty when refresh is enabled")
	}
	if c.Refresh.Enabled && c.Refresh.Interval >= c.Cache.Analysis.TTL {
		return fmt.Errorf("refresh.interval (%s) must be shorter than cache.analysis.ttl (%s)",
			c.Refresh.Interval, c.Cache.Analysis.TTL)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

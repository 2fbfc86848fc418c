package models

import (
	"math"
	"strings"
	"time"

	"SignalEngine/internal/domain/errs"
)

// PriceSnapshot is the 24h market view of one asset. High24h and Low24h are
// zero when the provider did not report a range.
type PriceSnapshot struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	High24h        float64   `json:"high_24h"`
	Low24h         float64   `json:"low_24h"`
	Change24h      float64   `json:"change_24h"` // percent
	Volume24h      float64   `json:"volume_24h"`
	MarketCap      float64   `json:"market_cap"`
	ATHDistancePct float64   `json:"ath_distance_pct"`
	ATLDistancePct float64   `json:"atl_distance_pct"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasRange reports whether a usable 24h high/low pair is present.
func (p PriceSnapshot) HasRange() bool {
	return p.High24h > 0 && p.Low24h > 0 && p.High24h >= p.Low24h
}

// SpreadPct is the 24h high/low range as a percentage of the current price.
// It is zero when the range is absent.
func (p PriceSnapshot) SpreadPct() float64 {
	if !p.HasRange() || p.Price <= 0 {
		return 0
	}
	return (p.High24h - p.Low24h) / p.Price * 100
}

// Validate rejects snapshots the engine cannot analyze.
func (p PriceSnapshot) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return errs.NewValidation("symbol", "must not be empty")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return &errs.InvalidDataError{Field: "price", Index: -1, Value: p.Price}
	}
	if p.Price <= 0 {
		return errs.NewValidation("price", "must be positive, got %v", p.Price)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"high_24h", p.High24h},
		{"low_24h", p.Low24h},
		{"volume_24h", p.Volume24h},
		{"market_cap", p.MarketCap},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &errs.InvalidDataError{Field: f.name, Index: -1, Value: f.v}
		}
	}
	if math.IsNaN(p.Change24h) || math.IsInf(p.Change24h, 0) {
		return &errs.InvalidDataError{Field: "change_24h", Index: -1, Value: p.Change24h}
	}
	return nil
}

// Candle represents an OHLCV record. Time is the open time in unix seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Tick is one streamed 24h ticker update.
type Tick struct {
	Symbol    string
	Close     float64
	Open      float64
	High      float64
	Low       float64
	Volume    float64
	EventTime time.Time
}

// Snapshot converts the tick into a PriceSnapshot.
func (t *Tick) Snapshot() PriceSnapshot {
	var change float64
	if t.Open > 0 {
		change = (t.Close - t.Open) / t.Open * 100
	}
	return PriceSnapshot{
		Symbol:    t.Symbol,
		Price:     t.Close,
		High24h:   t.High,
		Low24h:    t.Low,
		Change24h: change,
		Volume24h: t.Volume,
		Timestamp: t.EventTime,
	}
}

// MarketData is the input of one analysis cycle. Long is an optional
// longer-interval window and may be nil.
type MarketData struct {
	Snapshot PriceSnapshot
	Candles  []Candle
	Long     []Candle
}

// RegimeInput carries the statistics the regime classifier reads. Nil
// pointers mean the statistic is unavailable.
type RegimeInput struct {
	Snapshot PriceSnapshot
	RSI      *float64
	ADX      *float64
	ATRPct   *float64
	MACDHist *float64
	// PriceVsEMA is the percentage distance of price above its EMA.
	PriceVsEMA *float64
}

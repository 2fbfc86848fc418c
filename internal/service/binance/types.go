package binance

import (
	"bytes"
	"encoding/json"
	"fmt"

	"SignalEngine/internal/domain/models"
	"SignalEngine/pkg/util"
)

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
	CloseTime          int64  `json:"closeTime"`
}

func (t ticker24h) snapshot(symbol string) (models.PriceSnapshot, error) {
	var (
		snap = models.PriceSnapshot{Symbol: symbol, Timestamp: util.FromUnixMilli(t.CloseTime)}
		err  error
	)
	for _, f := range []struct {
		dst *float64
		src string
	}{
		{&snap.Price, t.LastPrice},
		{&snap.High24h, t.HighPrice},
		{&snap.Low24h, t.LowPrice},
		{&snap.Change24h, t.PriceChangePercent},
		{&snap.Volume24h, t.QuoteVolume},
	} {
		if *f.dst, err = util.ParseFloat(f.src); err != nil {
			return models.PriceSnapshot{}, err
		}
	}
	return snap, nil
}

// kline is one row of /api/v3/klines:
// [openTime, open, high, low, close, volume, closeTime, ...].
type kline models.Candle

func (k *kline) UnmarshalJSON(b []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(b, &row); err != nil {
		return err
	}
	if len(row) < 6 {
		return fmt.Errorf("kline: expected at least 6 fields, got %d", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return fmt.Errorf("kline open time: %w", err)
	}
	k.Time = openMs / 1000
	for i, dst := range []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume} {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return fmt.Errorf("kline field %d: %w", i+1, err)
		}
		v, err := util.ParseFloat(s)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// miniTicker is the payload of the <symbol>@miniTicker stream.
type miniTicker struct {
	EventType   string `json:"e"`
	EventTime   int64  `json:"E"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	QuoteVolume string `json:"q"`
}

func (m miniTicker) tick() (*models.Tick, error) {
	t := &models.Tick{Symbol: m.Symbol, EventTime: util.FromUnixMilli(m.EventTime)}
	for _, f := range []struct {
		dst *float64
		src string
	}{
		{&t.Close, m.Close},
		{&t.Open, m.Open},
		{&t.High, m.High},
		{&t.Low, m.Low},
		{&t.Volume, m.QuoteVolume},
	} {
		v, err := util.ParseFloat(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return t, nil
}

// streamFrame wraps payloads delivered on the combined /stream endpoint.
type streamFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// decodeTickers extracts mini tickers from a combined or raw frame. Frames
// that carry no tickers, such as subscription acks, yield nil.
func decodeTickers(b []byte) ([]miniTicker, error) {
	var frame streamFrame
	if err := json.Unmarshal(b, &frame); err == nil && len(frame.Data) > 0 {
		b = frame.Data
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}

	var out []miniTicker
	if b[0] == '[' {
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
	} else {
		var m miniTicker
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		out = []miniTicker{m}
	}

	n := 0
	for _, m := range out {
		if m.EventType == "24hrMiniTicker" && m.Symbol != "" {
			out[n] = m
			n++
		}
	}
	return out[:n], nil
}

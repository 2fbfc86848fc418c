// Package binance provides snapshot and candle data from the Binance spot
// API, plus the websocket mini-ticker stream.
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/internal/service/ratelimit"
	"SignalEngine/pkg/config"
	apphttp "SignalEngine/pkg/http"
	applogger "SignalEngine/pkg/logger"
)

const (
	providerName = "binance"
	maxKlines    = 1000
	limiterKey   = "rest"

	// Binance error code for an unknown trading pair.
	codeInvalidSymbol = -1121
)

// Client implements SnapshotProvider and CandleProvider over the REST API.
type Client struct {
	http    *apphttp.Client
	baseURL string
	quote   string
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics domrepo.Metrics
	log     *applogger.Logger
}

var (
	_ domrepo.SnapshotProvider = (*Client)(nil)
	_ domrepo.CandleProvider   = (*Client)(nil)
)

func NewClient(cfg config.BinanceConfig, metrics domrepo.Metrics, l *applogger.Logger) *Client {
	if l == nil {
		l = applogger.Nop()
	}
	log := l.With(applogger.String("provider", providerName))

	st := gobreaker.Settings{
		Name:    providerName,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Unknown symbols and bad parameters say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var se *apphttp.StatusError
			if errors.As(err, &se) {
				return se.Status >= 400 && se.Status < 500 && !throttled(se.Status)
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				applogger.String("from", from.String()),
				applogger.String("to", to.String()))
		},
	}

	return &Client{
		http:    apphttp.NewClient(apphttp.WithTimeout(cfg.Timeout)),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		quote:   strings.ToUpper(cfg.QuoteAsset),
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: metrics,
		log:     log,
	}
}

// Pair maps a base asset to its exchange pair, e.g. BTC to BTCUSDT.
func (c *Client) Pair(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if c.quote == "" || (strings.HasSuffix(s, c.quote) && len(s) > len(c.quote)) {
		return s
	}
	return s + c.quote
}

// GetSnapshot returns the rolling 24h ticker of symbol.
func (c *Client) GetSnapshot(ctx context.Context, symbol string) (models.PriceSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.PriceSnapshot{}, errs.NewValidation("symbol", "must not be empty")
	}

	var t ticker24h
	if err := c.call(ctx, symbol, "/api/v3/ticker/24hr", map[string][]string{
		"symbol": {c.Pair(symbol)},
	}, &t); err != nil {
		return models.PriceSnapshot{}, err
	}

	snap, err := t.snapshot(symbol)
	if err != nil {
		return models.PriceSnapshot{}, c.fail(&errs.DataSourceError{Provider: providerName, Err: fmt.Errorf("ticker %s: %w", symbol, err)})
	}
	return snap, nil
}

// GetCandles returns the latest limit klines of symbol in chronological order.
func (c *Client) GetCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, limit int) ([]models.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case symbol == "":
		return nil, errs.NewValidation("symbol", "must not be empty")
	case !domrepo.IsValidTimeframe(tf):
		return nil, errs.NewValidation("interval", "unsupported interval %q", tf)
	case limit < 1 || limit > maxKlines:
		return nil, errs.NewValidation("limit", "must be within 1..%d, got %d", maxKlines, limit)
	}

	var rows []kline
	if err := c.call(ctx, symbol, "/api/v3/klines", map[string][]string{
		"symbol":   {c.Pair(symbol)},
		"interval": {string(tf)},
		"limit":    {strconv.Itoa(limit)},
	}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, c.fail(&errs.DataNotAvailableError{Provider: providerName, Symbol: symbol})
	}

	out := make([]models.Candle, len(rows))
	for i, r := range rows {
		out[i] = models.Candle(r)
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, symbol, path string, query map[string][]string, dest interface{}) error {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return c.fail(&errs.DataSourceError{Provider: providerName, Err: fmt.Errorf("rate limiter: %w", err)})
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.http.SendAndParse(ctx, &apphttp.RequestOptions{
			Method:      apphttp.MethodGet,
			URL:         c.baseURL + path,
			QueryParams: query,
		}, dest)
	})
	if err != nil {
		mapped := c.fail(mapError(symbol, err))
		c.log.Debug("request failed",
			applogger.String("path", path),
			applogger.String("symbol", symbol),
			applogger.Duration("elapsed", time.Since(start)),
			applogger.Error(err))
		return mapped
	}
	return nil
}

func (c *Client) fail(err error) error {
	if c.metrics != nil {
		c.metrics.RecordProviderError(providerName, errs.Kind(err))
	}
	return err
}

func throttled(status int) bool {
	// 418 is Binance's ban response after repeated 429s.
	return status == http.StatusTooManyRequests || status == http.StatusTeapot
}

func mapError(symbol string, err error) error {
	var se *apphttp.StatusError
	if errors.As(err, &se) {
		switch {
		case throttled(se.Status):
			return &errs.RateLimitError{Provider: providerName, RetryAfter: se.RetryAfter}
		case se.Status == http.StatusBadRequest && invalidSymbol(se.Body):
			return &errs.DataNotAvailableError{Provider: providerName, Symbol: symbol}
		}
	}
	return &errs.DataSourceError{Provider: providerName, Err: err}
}

func invalidSymbol(body []byte) bool {
	return strings.Contains(string(body), strconv.Itoa(codeInvalidSymbol)) ||
		strings.Contains(strings.ToLower(string(body)), "invalid symbol")
}

package usecase

import (
	"context"
	"time"

	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	applogger "SignalEngine/pkg/logger"
)

// TickProcessor is the ingest step a collected tick goes through.
type TickProcessor interface {
	Process(ctx context.Context, t *models.Tick) error
}

// TickerCollector pumps the ticker stream into the ingest pipeline. A lost
// connection is re-established with capped exponential backoff for as long as
// the collector runs.
type TickerCollector struct {
	stream     domrepo.TickerStream
	proc       TickProcessor
	metrics    domrepo.Metrics
	log        *applogger.Logger
	backoffMin time.Duration
	backoffMax time.Duration
}

type CollectorOption func(*TickerCollector)

// WithReconnectBackoff bounds the delay between failed reconnect attempts.
func WithReconnectBackoff(min, max time.Duration) CollectorOption {
	return func(c *TickerCollector) {
		if min > 0 {
			c.backoffMin = min
		}
		if max >= c.backoffMin {
			c.backoffMax = max
		}
	}
}

func NewTickerCollector(stream domrepo.TickerStream, proc TickProcessor, metrics domrepo.Metrics, l *applogger.Logger, opts ...CollectorOption) *TickerCollector {
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	c := &TickerCollector{
		stream:     stream,
		proc:       proc,
		metrics:    metrics,
		log:        l.With(applogger.String("component", "ticker")),
		backoffMin: time.Second,
		backoffMax: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConnected returns true if the ticker stream is connected.
func (c *TickerCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start begins reading and makes the first connection attempt. When that
// attempt fails the collector keeps retrying in the background, so Start
// only fails for a context that is already done.
func (c *TickerCollector) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)

	err := c.stream.Connect(ctx)
	if err == nil {
		err = c.stream.Subscribe(ctx)
	}
	if err != nil {
		c.metrics.RecordError("stream")
		c.log.Warn("ticker stream unavailable, retrying in background", applogger.Error(err))
		go func() {
			if c.reconnect(ctx) {
				c.consume(ctx, tickCh, errCh)
			}
		}()
		return nil
	}
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickerCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			c.log.Warn("ticker stream error, reconnecting", applogger.Error(err))
			if !c.reconnect(ctx) {
				return
			}
		case t, ok := <-tickCh:
			if !ok {
				return
			}
			if t == nil {
				continue
			}
			if err := c.proc.Process(ctx, t); err != nil {
				c.log.Debug("tick rejected", applogger.String("symbol", t.Symbol), applogger.Error(err))
			}
		}
	}
}

// reconnect retries until the stream is back or ctx is done, and reports
// which of the two happened.
func (c *TickerCollector) reconnect(ctx context.Context) bool {
	delay := c.backoffMin
	for attempt := 1; ; attempt++ {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			if attempt > 1 {
				c.log.Info("ticker stream restored", applogger.Int("attempts", attempt))
			}
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.metrics.RecordError("stream")
		c.log.Error("ticker reconnect failed",
			applogger.Int("attempt", attempt),
			applogger.Duration("retry_in", delay),
			applogger.Error(err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.backoffMax {
			delay = c.backoffMax
		}
	}
}

// Shutdown closes the stream.
func (c *TickerCollector) Shutdown(context.Context) error {
	return c.stream.Close()
}

package middleware

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
)

// TickerPipeline sits between the websocket stream and the snapshot store.
// It validates, normalizes and throttles ticks per symbol before handing
// them to the sink.
type TickerPipeline struct {
	sink     domrepo.TickSink
	metrics  domrepo.Metrics
	maxRPS   int
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
	// optional format transform applied before throttling
	transform func(*models.Tick) *models.Tick
	now       func() time.Time
}

type PipelineOption func(*TickerPipeline)

// WithMaxRPS sets the max ticks per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickerPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithTransform sets a transformation hook to modify tick format.
func WithTransform(fn func(*models.Tick) *models.Tick) PipelineOption {
	return func(p *TickerPipeline) { p.transform = fn }
}

// WithQuoteAsset strips the quote asset from exchange symbols so BTCUSDT is
// stored as BTC.
func WithQuoteAsset(quote string) PipelineOption {
	quote = strings.ToUpper(quote)
	return WithTransform(func(t *models.Tick) *models.Tick {
		sym := strings.ToUpper(t.Symbol)
		if quote != "" && strings.HasSuffix(sym, quote) && len(sym) > len(quote) {
			sym = strings.TrimSuffix(sym, quote)
		}
		out := *t
		out.Symbol = sym
		return &out
	})
}

// NewTickerPipeline creates a new pipeline.
func NewTickerPipeline(sink domrepo.TickSink, metrics domrepo.Metrics, opts ...PipelineOption) *TickerPipeline {
	p := &TickerPipeline{
		sink:     sink,
		metrics:  metrics,
		maxRPS:   5, // default throttle per symbol
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates, throttles and forwards a tick. Throttled ticks are
// dropped without error.
func (p *TickerPipeline) Process(_ context.Context, t *models.Tick) error {
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		t = p.transform(t)
		if err := validateTick(t); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(t.Symbol, p.now()) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}
	p.sink.Put(t)
	p.metrics.RecordLastPrice(t.Symbol, t.Close)
	return nil
}

func validateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.EventTime.IsZero() {
		return fmt.Errorf("event time missing")
	}
	for _, v := range []float64{t.Close, t.Open, t.High, t.Low, t.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("invalid price/volume %v", v)
		}
	}
	if t.Close == 0 {
		return fmt.Errorf("zero close")
	}
	return nil
}

func (p *TickerPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}

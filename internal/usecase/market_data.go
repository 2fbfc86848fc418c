package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/cache"
	"SignalEngine/pkg/config"
	applogger "SignalEngine/pkg/logger"
)

// MarketDataFetcher gathers everything one analysis cycle needs.
type MarketDataFetcher interface {
	Fetch(ctx context.Context, symbol string) (models.MarketData, error)
}

// MarketDataUseCase fetches the snapshot and both candle windows
// concurrently, each through its own category cache.
type MarketDataUseCase struct {
	snapshots domrepo.SnapshotProvider
	candles   domrepo.CandleProvider
	snapCache *cache.Loader[models.PriceSnapshot]
	candCache *cache.Loader[[]models.Candle]
	engine    config.EngineConfig
	timeout   time.Duration
	log       *applogger.Logger
}

func NewMarketDataUseCase(
	snapshots domrepo.SnapshotProvider,
	candles domrepo.CandleProvider,
	snapCache *cache.Loader[models.PriceSnapshot],
	candCache *cache.Loader[[]models.Candle],
	engine config.EngineConfig,
	timeout time.Duration,
	l *applogger.Logger,
) *MarketDataUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &MarketDataUseCase{
		snapshots: snapshots,
		candles:   candles,
		snapCache: snapCache,
		candCache: candCache,
		engine:    engine,
		timeout:   timeout,
		log:       l,
	}
}

// Fetch fails fast on the snapshot or the primary window; the long window is
// optional and left nil when it cannot be fetched.
func (uc *MarketDataUseCase) Fetch(ctx context.Context, symbol string) (models.MarketData, error) {
	symbol = NormalizeSymbol(symbol)
	var data models.MarketData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := uc.snapCache.Get(gctx, symbol, func(ctx context.Context) (models.PriceSnapshot, error) {
			ctx, cancel := uc.withTimeout(ctx)
			defer cancel()
			return uc.snapshots.GetSnapshot(ctx, symbol)
		})
		if err != nil {
			return err
		}
		data.Snapshot = snap
		return nil
	})
	g.Go(func() error {
		cs, err := uc.window(gctx, symbol, uc.engine.CandleInterval, uc.engine.CandleLimit)
		if err != nil {
			return err
		}
		data.Candles = cs
		return nil
	})
	g.Go(func() error {
		cs, err := uc.window(gctx, symbol, uc.engine.LongInterval, uc.engine.LongLimit)
		if err != nil {
			uc.log.Debug("long window unavailable",
				applogger.String("symbol", symbol),
				applogger.String("interval", uc.engine.LongInterval),
				applogger.Error(err))
			return nil
		}
		data.Long = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.MarketData{}, err
	}
	return data, nil
}

func (uc *MarketDataUseCase) window(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	tf := domrepo.NormalizeTimeframe(interval)
	key := cache.GenerateKeyWithParams(symbol, tf, limit)
	return uc.candCache.Get(ctx, key, func(ctx context.Context) ([]models.Candle, error) {
		ctx, cancel := uc.withTimeout(ctx)
		defer cancel()
		return uc.candles.GetCandles(ctx, symbol, tf, limit)
	})
}

// withTimeout bounds one upstream fetch.
func (uc *MarketDataUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.timeout)
}

package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"SignalEngine/internal/domain/models"
	"SignalEngine/pkg/config"
	applogger "SignalEngine/pkg/logger"
)

// Warmer is the cache the refresher keeps populated.
type Warmer interface {
	Refresh(ctx context.Context, symbol string) (*models.AssetAnalysis, error)
}

// Refresher re-warms the analysis cache for a watchlist with a fixed pool of
// workers. Every round replaces the entries outright, so with an interval
// below the cache TTL a watched symbol never expires. A failing symbol is
// logged and does not affect the others.
type Refresher struct {
	svc      Warmer
	symbols  []string
	interval time.Duration
	workers  int
	log      *applogger.Logger
}

func NewRefresher(svc Warmer, cfg config.RefreshConfig, l *applogger.Logger) *Refresher {
	if l == nil {
		l = applogger.Nop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Refresher{
		svc:      svc,
		symbols:  cfg.Symbols,
		interval: cfg.Interval,
		workers:  workers,
		log:      l.With(applogger.String("component", "refresher")),
	}
}

// Run refreshes immediately and then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	if len(r.symbols) == 0 {
		r.log.Info("refresher idle: empty watchlist")
		<-ctx.Done()
		return nil
	}
	r.log.Info("refresher started",
		applogger.Strings("symbols", r.symbols),
		applogger.Int("workers", r.workers),
		applogger.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			r.log.Info("refresher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce warms every symbol once and returns how many failed.
func (r *Refresher) RunOnce(ctx context.Context) int {
	jobs := make(chan string)
	var failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				if _, err := r.svc.Refresh(ctx, sym); err != nil {
					failed.Add(1)
					r.log.Warn("refresh failed", applogger.String("symbol", sym), applogger.Error(err))
				}
			}
		}()
	}

feed:
	for _, sym := range r.symbols {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- sym:
		}
	}
	close(jobs)
	wg.Wait()
	return int(failed.Load())
}

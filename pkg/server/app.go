package server

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/usecase"
	"SignalEngine/pkg/config"
	xhttp "SignalEngine/pkg/http"
	applogger "SignalEngine/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	svc        *usecase.AnalysisService
	refresher  *usecase.Refresher
	collector  *usecase.TickerCollector
	httpServer *xhttp.Server
	log        *applogger.Logger
}

// New creates a new App. refresher and collector may be nil when disabled.
func New(
	cfg *config.Config,
	svc *usecase.AnalysisService,
	refresher *usecase.Refresher,
	collector *usecase.TickerCollector,
	httpServer *xhttp.Server,
	l *applogger.Logger,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		svc:        svc,
		refresher:  refresher,
		collector:  collector,
		httpServer: httpServer,
		log:        l,
	}
}

// Run starts the collector, the refresher and the HTTP server, and blocks
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.collector != nil {
		// A failed first dial is retried inside the collector; snapshots fall
		// back to REST meanwhile.
		if err := a.collector.Start(ctx); err != nil {
			return fmt.Errorf("collector start: %w", err)
		}
		a.log.Info("collector started", applogger.Strings("symbols", a.cfg.Refresh.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.refresher != nil {
		g.Go(func() error { return a.refresher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err := g.Wait()
	a.log.Info("shutdown signal received")
	if serr := a.shutdown(); serr != nil && err == nil {
		err = serr
	}
	return err
}

// Analyze computes a fresh analysis for one symbol without serving HTTP.
func (a *App) Analyze(ctx context.Context, symbol string) (*models.AssetAnalysis, error) {
	return a.svc.Compute(ctx, symbol)
}

// shutdown gracefully stops all services. Infrastructure clients are closed
// by the cleanup returned from dependency injection.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

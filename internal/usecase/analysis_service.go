package usecase

import (
	"context"
	"time"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/cache"
	applogger "SignalEngine/pkg/logger"
)

const publishTimeout = 5 * time.Second

// AnalysisService serves analyses through the analysis cache. Each miss
// fetches market data, runs the analyzer once and publishes the result.
type AnalysisService struct {
	data     MarketDataFetcher
	analyzer *Analyzer
	cache    *cache.Loader[*models.AssetAnalysis]
	pub      domrepo.AnalysisPublisher
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

func NewAnalysisService(
	data MarketDataFetcher,
	analyzer *Analyzer,
	c *cache.Loader[*models.AssetAnalysis],
	pub domrepo.AnalysisPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *AnalysisService {
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AnalysisService{data: data, analyzer: analyzer, cache: c, pub: pub, metrics: metrics, log: l}
}

// GetCached returns the cached analysis for symbol, computing it at most once
// per TTL no matter how many callers ask concurrently. Callers that give up
// do not cancel the shared computation.
func (s *AnalysisService) GetCached(ctx context.Context, symbol string) (*models.AssetAnalysis, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errs.NewValidation("symbol", "must not be empty")
	}
	return s.cache.Get(ctx, symbol, s.computeAndPublish(symbol))
}

// Refresh recomputes symbol and replaces its cached analysis whether or not
// the current one is still fresh.
func (s *AnalysisService) Refresh(ctx context.Context, symbol string) (*models.AssetAnalysis, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errs.NewValidation("symbol", "must not be empty")
	}
	return s.cache.Refresh(ctx, symbol, s.computeAndPublish(symbol))
}

func (s *AnalysisService) computeAndPublish(symbol string) cache.LoadFunc[*models.AssetAnalysis] {
	return func(ctx context.Context) (*models.AssetAnalysis, error) {
		a, err := s.Compute(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, a)
		return a, nil
	}
}

// Compute fetches and analyzes symbol without consulting the cache.
func (s *AnalysisService) Compute(ctx context.Context, symbol string) (*models.AssetAnalysis, error) {
	symbol = NormalizeSymbol(symbol)
	start := time.Now()

	data, err := s.data.Fetch(ctx, symbol)
	if err != nil {
		s.metrics.RecordError(errs.Kind(err))
		s.log.Warn("market data fetch failed",
			applogger.String("symbol", symbol),
			applogger.String("kind", errs.Kind(err)),
			applogger.Error(err))
		return nil, err
	}

	a, err := s.analyzer.AnalyzeData(symbol, data)
	if err != nil {
		s.metrics.RecordError(errs.Kind(err))
		s.log.Warn("analysis failed", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.RecordAnalysis(symbol, a.Strategy.Regime, elapsed.Seconds())
	s.metrics.RecordLastPrice(symbol, a.Snapshot.Price)
	s.log.Debug("analysis computed",
		applogger.String("symbol", symbol),
		applogger.String("regime", string(a.Strategy.Regime)),
		applogger.String("signal", string(a.OverallSignal)),
		applogger.Float64("confidence", a.Confidence),
		applogger.Float64("risk", a.RiskScore),
		applogger.Duration("elapsed", elapsed))
	return a, nil
}

// Invalidate drops the cached analysis for symbol.
func (s *AnalysisService) Invalidate(ctx context.Context, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return errs.NewValidation("symbol", "must not be empty")
	}
	return s.cache.Invalidate(ctx, symbol)
}

// publish is best effort; a failed publish never fails the analysis.
func (s *AnalysisService) publish(ctx context.Context, a *models.AssetAnalysis) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, a); err != nil {
		s.metrics.RecordError("publish")
		s.log.Warn("publish analysis failed", applogger.String("symbol", a.Symbol), applogger.Error(err))
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordCacheHit(string)                              {}
func (nopMetrics) RecordCacheMiss(string)                             {}
func (nopMetrics) RecordCacheLoad(string, float64, error)             {}
func (nopMetrics) RecordStrategyFailure(string)                       {}
func (nopMetrics) RecordProviderError(string, string)                 {}
func (nopMetrics) RecordAnalysis(string, models.MarketRegime, float64) {}
func (nopMetrics) RecordLastPrice(string, float64)                    {}
func (nopMetrics) RecordError(string)                                 {}

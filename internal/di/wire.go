//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/config"
	"SignalEngine/pkg/metrics"
	"SignalEngine/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application with
// a cleanup that releases infrastructure clients.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,

		// Metrics
		ProvideRegistry,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Market data providers
		ProvideBinanceClient,
		ProvideSnapshotStore,
		ProvideCandleProvider,

		// Caches
		ProvideRemoteCache,
		ProvideAnalysisCache,
		ProvideSnapshotCache,
		ProvideCandleCache,

		// Engine
		ProvideCalculator,
		ProvideExecutor,
		ProvideCrashDetector,
		ProvideEntryGenerator,
		ProvideAnalyzer,

		// Use cases
		ProvideMarketData,
		ProvidePublisher,
		ProvideAnalysisService,
		ProvideRefresher,
		ProvideTickerCollector,

		// HTTP
		ProvideLimiter,
		ProvideAnalysisHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

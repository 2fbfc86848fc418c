package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"SignalEngine/internal/domain/models"
	"SignalEngine/internal/domain/repository"
	domsvc "SignalEngine/internal/domain/service"
	"SignalEngine/internal/handler/api"
	mid "SignalEngine/internal/middleware"
	internalrepo "SignalEngine/internal/repository"
	"SignalEngine/internal/service/binance"
	"SignalEngine/internal/service/ratelimit"
	"SignalEngine/internal/services/analytics"
	"SignalEngine/internal/services/indicators"
	"SignalEngine/internal/services/strategy"
	"SignalEngine/internal/usecase"
	"SignalEngine/pkg/cache"
	pkgch "SignalEngine/pkg/clickhouse"
	"SignalEngine/pkg/config"
	xhttp "SignalEngine/pkg/http"
	pkgkafka "SignalEngine/pkg/kafka"
	applogger "SignalEngine/pkg/logger"
	"SignalEngine/pkg/metrics"
	"SignalEngine/pkg/server"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger builds the root logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry every collector joins.
func ProvideRegistry() *prometheus.Registry {
	return metrics.NewRegistry()
}

// ProvideMetrics creates the engine metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideBinanceClient creates the REST client used for snapshots and candles.
func ProvideBinanceClient(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *binance.Client {
	return binance.NewClient(cfg.Binance, m, l)
}

// ProvideSnapshotStore serves snapshots from streamed ticks, falling back to
// REST when a symbol has no fresh tick.
func ProvideSnapshotStore(cfg *config.Config, client *binance.Client) *internalrepo.StreamSnapshotStore {
	return internalrepo.NewStreamSnapshotStore(client, cfg.Cache.Snapshot.TTL, cfg.Cache.Snapshot.Capacity)
}

// ProvideCandleProvider selects the candle source. The ClickHouse store owns
// a connection pool that the returned cleanup closes.
func ProvideCandleProvider(cfg *config.Config, client *binance.Client, l *applogger.Logger) (repository.CandleProvider, func(), error) {
	if cfg.Providers.Candles != "clickhouse" {
		return client, func() {}, nil
	}

	ch, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := ch.InitSchema(ctx, internalrepo.CandleSchema(table)); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cleanup := func() {
		if err := ch.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return internalrepo.NewCHCandleStore(ch, table, l), cleanup, nil
}

// ProvideRemoteCache returns the shared Redis layer, or nil when the
// analysis cache is process-local.
func ProvideRemoteCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.L2Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("analysis cache shared via redis", applogger.String("addr", cfg.Redis.Addr))
	return rc, func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}, nil
}

// ProvideAnalysisCache builds the analysis category, layered over Redis when
// remote is set.
func ProvideAnalysisCache(cfg *config.Config, remote cache.Service, rec *metrics.Recorder, l *applogger.Logger) *cache.Loader[*models.AssetAnalysis] {
	opts := []cache.LayeredOption{
		cache.WithLayeredTTL(cfg.Cache.Analysis.TTL),
		cache.WithLayeredMemorySize(cfg.Cache.Analysis.Capacity),
		cache.WithRecorder(rec),
		cache.WithLogger(l),
	}
	if remote != nil {
		opts = append(opts, cache.WithRemote(remote))
	}
	return cache.NewLoader[*models.AssetAnalysis]("analysis", opts...)
}

func ProvideSnapshotCache(cfg *config.Config, rec *metrics.Recorder, l *applogger.Logger) *cache.Loader[models.PriceSnapshot] {
	return cache.NewLoader[models.PriceSnapshot]("snapshot",
		cache.WithLayeredTTL(cfg.Cache.Snapshot.TTL),
		cache.WithLayeredMemorySize(cfg.Cache.Snapshot.Capacity),
		cache.WithRecorder(rec),
		cache.WithLogger(l),
	)
}

func ProvideCandleCache(cfg *config.Config, rec *metrics.Recorder, l *applogger.Logger) *cache.Loader[[]models.Candle] {
	return cache.NewLoader[[]models.Candle]("candles",
		cache.WithLayeredTTL(cfg.Cache.Candles.TTL),
		cache.WithLayeredMemorySize(cfg.Cache.Candles.Capacity),
		cache.WithRecorder(rec),
		cache.WithLogger(l),
	)
}

func ProvideCalculator(cfg *config.Config) *indicators.Calculator {
	return indicators.NewCalculator(cfg.Engine.Indicators)
}

// ProvideExecutor registers the built-in strategies behind the regime
// classifier.
func ProvideExecutor(cfg *config.Config, calc *indicators.Calculator, m repository.Metrics, l *applogger.Logger) *strategy.Executor {
	return strategy.NewExecutor(
		analytics.NewRegimeClassifier(cfg.Engine.Regime),
		strategy.Registry(calc, cfg.Engine.Strategy),
		calc,
		cfg.Engine.Strategy,
		m,
		l,
	)
}

func ProvideCrashDetector(cfg *config.Config) domsvc.CrashDetector {
	return analytics.NewCrashDetector(cfg.Engine.Crash, cfg.Engine.Indicators)
}

func ProvideEntryGenerator(cfg *config.Config) domsvc.EntryGenerator {
	return analytics.NewEntryGenerator(cfg.Engine.Entry, cfg.Engine.Indicators)
}

func ProvideAnalyzer(cfg *config.Config, calc *indicators.Calculator, exec *strategy.Executor, crash domsvc.CrashDetector, entry domsvc.EntryGenerator) *usecase.Analyzer {
	return usecase.NewAnalyzer(calc, exec, crash, entry, cfg.Engine.Crash)
}

func ProvideMarketData(
	cfg *config.Config,
	snapshots *internalrepo.StreamSnapshotStore,
	candles repository.CandleProvider,
	snapCache *cache.Loader[models.PriceSnapshot],
	candCache *cache.Loader[[]models.Candle],
	l *applogger.Logger,
) *usecase.MarketDataUseCase {
	return usecase.NewMarketDataUseCase(snapshots, candles, snapCache, candCache, cfg.Engine, cfg.Binance.Timeout, l)
}

// ProvidePublisher returns the Kafka publisher when enabled and a no-op
// otherwise. The cleanup flushes and closes the producer.
func ProvidePublisher(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (repository.AnalysisPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchBytes, cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	l.Info("publishing analyses",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic))
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

func ProvideAnalysisService(
	data *usecase.MarketDataUseCase,
	analyzer *usecase.Analyzer,
	c *cache.Loader[*models.AssetAnalysis],
	pub repository.AnalysisPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisService {
	return usecase.NewAnalysisService(data, analyzer, c, pub, m, l)
}

func ProvideRefresher(cfg *config.Config, svc *usecase.AnalysisService, l *applogger.Logger) *usecase.Refresher {
	if !cfg.Refresh.Enabled {
		return nil
	}
	return usecase.NewRefresher(svc, cfg.Refresh, l)
}

// ProvideTickerCollector streams mini tickers for the watchlist into the
// snapshot store. It returns nil when streaming is disabled.
func ProvideTickerCollector(cfg *config.Config, store *internalrepo.StreamSnapshotStore, m repository.Metrics, l *applogger.Logger) *usecase.TickerCollector {
	if !cfg.Providers.Stream || len(cfg.Refresh.Symbols) == 0 {
		return nil
	}
	stream := binance.NewStream(cfg.Binance, cfg.Refresh.Symbols, l)
	pipe := mid.NewTickerPipeline(store, m,
		mid.WithMaxRPS(5),
		mid.WithQuoteAsset(cfg.Binance.QuoteAsset),
	)
	return usecase.NewTickerCollector(stream, pipe, m, l,
		usecase.WithReconnectBackoff(time.Second, cfg.Binance.MaxReconnectDelay),
	)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
}

func ProvideAnalysisHandler(
	cfg *config.Config,
	svc *usecase.AnalysisService,
	limiter *ratelimit.Limiter,
	collector *usecase.TickerCollector,
	l *applogger.Logger,
) *api.AnalysisHandler {
	var stream api.StreamStatus
	if collector != nil {
		stream = collector
	}
	return api.NewAnalysisHandler(l, svc, limiter, stream, cfg.Cache.Analysis.TTL)
}

// ProvideHTTPServer builds the Echo server and mounts the metrics endpoint
// when enabled.
func ProvideHTTPServer(cfg *config.Config, h *api.AnalysisHandler, rec *metrics.Recorder, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(rec, cfg.Metrics.Path, metrics.Handler(reg)))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	svc *usecase.AnalysisService,
	refresher *usecase.Refresher,
	collector *usecase.TickerCollector,
	httpServer *xhttp.Server,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, svc, refresher, collector, httpServer, l)
}

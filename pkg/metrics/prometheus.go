package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SignalEngine/internal/domain/models"
)

const namespace = "signal"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheRequests    *prometheus.CounterVec
	cacheLoads       *prometheus.HistogramVec
	strategyFailures *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	analyses         *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
	lastPrice        *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// New creates a recorder whose collectors are registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		cacheLoads: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "load_seconds",
			Help:      "Duration of cache fills",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache", "result"}),
		strategyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "failures_total",
			Help:      "Strategies excluded from a result",
		}, []string{"strategy"}),
		providerErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Upstream provider errors by kind",
		}, []string{"provider", "kind"}),
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Completed analyses by symbol and regime",
		}, []string{"symbol", "regime"}),
		analysisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Fetch plus analysis latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"regime"}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_price",
			Help:      "Last recorded price for a symbol",
		}, []string{"symbol"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by kind",
		}, []string{"type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "class"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests",
		}),
	}
}

func (r *Recorder) RecordCacheHit(cache string) {
	r.cacheRequests.WithLabelValues(cache, "hit").Inc()
}

func (r *Recorder) RecordCacheMiss(cache string) {
	r.cacheRequests.WithLabelValues(cache, "miss").Inc()
}

func (r *Recorder) RecordCacheLoad(cache string, seconds float64, err error) {
	r.cacheLoads.WithLabelValues(cache, result(err)).Observe(seconds)
}

func (r *Recorder) RecordStrategyFailure(strategy string) {
	r.strategyFailures.WithLabelValues(strategy).Inc()
}

func (r *Recorder) RecordProviderError(provider, kind string) {
	r.providerErrors.WithLabelValues(provider, kind).Inc()
}

func (r *Recorder) RecordAnalysis(symbol string, regime models.MarketRegime, seconds float64) {
	r.analyses.WithLabelValues(symbol, string(regime)).Inc()
	r.analysisLatency.WithLabelValues(string(regime)).Observe(seconds)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// HTTPStarted and HTTPFinished back the HTTP metrics middleware.
func (r *Recorder) HTTPStarted() { r.httpInFlight.Inc() }

func (r *Recorder) HTTPFinished(route, method string, status int, seconds float64) {
	r.httpInFlight.Dec()
	r.httpRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	r.httpDuration.WithLabelValues(route, method, statusClass(status)).Observe(seconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"SignalEngine/internal/domain/models"
	xhttp "SignalEngine/pkg/http"
	"SignalEngine/pkg/http/middleware"
	xlogger "SignalEngine/pkg/logger"
)

// AnalysisReader is the read side the handler serves from.
type AnalysisReader interface {
	GetCached(ctx context.Context, symbol string) (*models.AssetAnalysis, error)
	Invalidate(ctx context.Context, symbol string) error
}

// StreamStatus reports whether the ticker stream is up.
type StreamStatus interface {
	IsConnected() bool
}

type RegimeView struct {
	Symbol    string                `json:"symbol"`
	Timestamp time.Time             `json:"timestamp"`
	Regime    models.MarketRegime   `json:"regime"`
	Strategy  models.StrategyResult `json:"strategy"`
}

type CrashView struct {
	Symbol    string             `json:"symbol"`
	Timestamp time.Time          `json:"timestamp"`
	Price     float64            `json:"price"`
	Crash     models.CrashSignal `json:"crash"`
}

type EntryView struct {
	Symbol    string             `json:"symbol"`
	Timestamp time.Time          `json:"timestamp"`
	Price     float64            `json:"price"`
	Entry     models.EntrySignal `json:"entry"`
}

// AnalysisHandler exposes cached analyses over HTTP.
type AnalysisHandler struct {
	logger  *xlogger.Logger
	svc     AnalysisReader
	limiter middleware.Allower
	stream  StreamStatus
	maxAge  time.Duration
}

// NewAnalysisHandler wires the handler. limiter and stream may be nil.
func NewAnalysisHandler(logger *xlogger.Logger, svc AnalysisReader, limiter middleware.Allower, stream StreamStatus, maxAge time.Duration) *AnalysisHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisHandler{logger: logger, svc: svc, limiter: limiter, stream: stream, maxAge: maxAge}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter))
	}
	g.GET("/analysis", h.Analysis)
	g.GET("/analysis/regime", h.Regime)
	g.GET("/analysis/crash", h.Crash)
	g.GET("/analysis/entry", h.Entry)
	g.DELETE("/analysis", h.Invalidate)
}

// serve validates the symbol, loads its cached analysis and writes the
// projection returned by view.
func (h *AnalysisHandler) serve(c echo.Context, view func(a *models.AssetAnalysis) interface{}) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a, err := h.svc.GetCached(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Warn("analysis request failed",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("route", c.Path()),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.maxAge > 0 {
		c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age="+strconv.Itoa(int(h.maxAge.Seconds())))
	}
	return xhttp.SuccessResponse(c, view(a))
}

// Analysis returns the full AssetAnalysis.
func (h *AnalysisHandler) Analysis(c echo.Context) error {
	return h.serve(c, func(a *models.AssetAnalysis) interface{} { return a })
}

func (h *AnalysisHandler) Regime(c echo.Context) error {
	return h.serve(c, func(a *models.AssetAnalysis) interface{} {
		return RegimeView{Symbol: a.Symbol, Timestamp: a.Timestamp, Regime: a.Strategy.Regime, Strategy: a.Strategy}
	})
}

func (h *AnalysisHandler) Crash(c echo.Context) error {
	return h.serve(c, func(a *models.AssetAnalysis) interface{} {
		return CrashView{Symbol: a.Symbol, Timestamp: a.Timestamp, Price: a.Snapshot.Price, Crash: a.Crash}
	})
}

func (h *AnalysisHandler) Entry(c echo.Context) error {
	return h.serve(c, func(a *models.AssetAnalysis) interface{} {
		return EntryView{Symbol: a.Symbol, Timestamp: a.Timestamp, Price: a.Snapshot.Price, Entry: a.Entry}
	})
}

// Invalidate drops the cached analysis so the next read recomputes it.
func (h *AnalysisHandler) Invalidate(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.svc.Invalidate(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Warn("invalidate failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	body := map[string]interface{}{"status": "ok"}
	if h.stream != nil {
		body["stream_connected"] = h.stream.IsConnected()
	}
	return c.JSON(http.StatusOK, body)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	pkgch "SignalEngine/pkg/clickhouse"
	applogger "SignalEngine/pkg/logger"
	"SignalEngine/pkg/util"
)

const chProvider = "clickhouse"

type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type queryFunc func(ctx context.Context, query string, args ...any) (rows, error)

// CHCandleStore implements CandleProvider over a ClickHouse OHLCV table
// keyed by (symbol, interval, bucket).
type CHCandleStore struct {
	query queryFunc
	table string
	now   func() time.Time
	l     *applogger.Logger
}

var _ domrepo.CandleProvider = (*CHCandleStore)(nil)

func NewCHCandleStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHCandleStore {
	db := ch.DB()
	return newCHCandleStore(func(ctx context.Context, q string, args ...any) (rows, error) {
		return db.QueryContext(ctx, q, args...)
	}, table, l)
}

func newCHCandleStore(q queryFunc, table string, l *applogger.Logger) *CHCandleStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHCandleStore{query: q, table: table, now: time.Now, l: l.With(applogger.String("provider", chProvider))}
}

// CandleSchema returns the DDL for the candle table.
func CandleSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol   LowCardinality(String),
            interval LowCardinality(String),
            bucket   DateTime,
            open     Float64,
            high     Float64,
            low      Float64,
            close    Float64,
            volume   Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, interval, bucket)
    `, table)}
}

// GetCandles returns the latest limit candles up to the current bucket,
// oldest first.
func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, limit int) ([]models.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errs.NewValidation("symbol", "must not be empty")
	}
	if !domrepo.IsValidTimeframe(tf) {
		return nil, errs.NewValidation("interval", "unsupported interval %q", tf)
	}
	if limit < 1 {
		return nil, errs.NewValidation("limit", "must be positive, got %d", limit)
	}

	start := time.Now()
	const qtpl = `
        SELECT toUnixTimestamp(bucket), open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND interval = ? AND bucket <= ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	upper := util.AlignToInterval(s.now(), string(tf))
	rs, err := s.query(ctx, fmt.Sprintf(qtpl, s.table), symbol, string(tf), upper, limit)
	if err != nil {
		s.l.Error("latest_candles query error",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Error(err))
		return nil, &errs.DataSourceError{Provider: chProvider, Err: fmt.Errorf("get candles: %w", err)}
	}
	defer rs.Close()

	out := make([]models.Candle, 0, limit)
	for rs.Next() {
		var (
			c  models.Candle
			ts uint32
		)
		if err := rs.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, &errs.DataSourceError{Provider: chProvider, Err: fmt.Errorf("scan candle: %w", err)}
		}
		c.Time = int64(ts)
		out = append(out, c)
	}
	if err := rs.Err(); err != nil {
		return nil, &errs.DataSourceError{Provider: chProvider, Err: fmt.Errorf("rows: %w", err)}
	}
	if len(out) == 0 {
		return nil, &errs.DataNotAvailableError{Provider: chProvider, Symbol: symbol}
	}

	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	s.l.Debug("latest_candles ok",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration", time.Since(start)))
	return out, nil
}

var _ rows = (*sql.Rows)(nil)

package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/config"
	applogger "SignalEngine/pkg/logger"
)

const tickBuffer = 1024

// Stream implements TickerStream over the mini-ticker websocket. The channels
// returned by Read stay valid across Reconnect.
type Stream struct {
	url            string
	pairs          []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	dialer         *websocket.Dialer
	log            *applogger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	readCtx context.Context
	nextID  int64

	connected atomic.Bool
	ticks     chan *models.Tick
	errs      chan error
}

var _ domrepo.TickerStream = (*Stream)(nil)

// NewStream subscribes to the mini ticker of each symbol's exchange pair.
func NewStream(cfg config.BinanceConfig, symbols []string, l *applogger.Logger) *Stream {
	if l == nil {
		l = applogger.Nop()
	}
	quote := strings.ToUpper(cfg.QuoteAsset)
	pairs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasSuffix(s, quote) {
			s += quote
		}
		pairs = append(pairs, strings.ToLower(s)+"@miniTicker")
	}
	return &Stream{
		url:            cfg.WebSocketURL,
		pairs:          pairs,
		reconnectDelay: cfg.ReconnectDelay,
		pingInterval:   cfg.PingInterval,
		dialer:         &websocket.Dialer{HandshakeTimeout: cfg.Timeout},
		log:            l.With(applogger.String("component", "binance_stream")),
		ticks:          make(chan *models.Tick, tickBuffer),
		errs:           make(chan error, 1),
	}
}

// Connect establishes the websocket connection. When Read is already
// running, a reader for the new connection is started.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	readCtx := s.readCtx
	s.mu.Unlock()
	s.connected.Store(true)

	if readCtx != nil {
		go s.readLoop(readCtx, conn)
	}
	s.log.Info("connected", applogger.String("url", s.url))
	return nil
}

// Subscribe requests the configured mini-ticker streams.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected.Load() {
		return errors.New("binance stream not connected")
	}
	if len(s.pairs) == 0 {
		return nil
	}
	s.nextID++
	msg := map[string]interface{}{"method": "SUBSCRIBE", "params": s.pairs, "id": s.nextID}
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.log.Info("subscribed", applogger.Strings("streams", s.pairs))
	return nil
}

// Read starts delivering ticks and read errors. It is meant to be called once.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	s.readCtx = ctx
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		go s.readLoop(ctx, conn)
	}
	go s.pingLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return s.ticks, s.errs
}

func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			// A replaced or closed connection is not an error worth reporting.
			if ctx.Err() != nil || s.current() != conn {
				return
			}
			s.connected.Store(false)
			select {
			case s.errs <- fmt.Errorf("binance read: %w", err):
			default:
			}
			return
		}

		tickers, err := decodeTickers(b)
		if err != nil {
			s.log.Debug("skip frame", applogger.Error(err))
			continue
		}
		for _, m := range tickers {
			t, err := m.tick()
			if err != nil {
				s.log.Debug("skip ticker", applogger.String("symbol", m.Symbol), applogger.Error(err))
				continue
			}
			select {
			case s.ticks <- t:
			case <-ctx.Done():
				return
			default:
				// drop on backpressure
			}
		}
	}
}

func (s *Stream) pingLoop(ctx context.Context) {
	if s.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := s.current(); conn != nil {
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.pingInterval))
			}
		}
	}
}

// Reconnect closes the connection, waits the reconnect delay, then dials and
// subscribes again.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	if s.reconnectDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.connected.Store(false)
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected.Load() }

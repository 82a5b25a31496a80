package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainrepo "SignalBatch/internal/domain/repository"
	"SignalBatch/pkg/logger"

	"github.com/gorilla/websocket"
)

// QuoteStream keeps a live last-price feed for a configured watchlist
// over the provider's WebSocket API. It only feeds the last-price gauge;
// the analysis pipeline itself works from REST candles.
type QuoteStream struct {
	logger         *logger.Logger
	metrics        domainrepo.Metrics
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn *websocket.Conn
}

// NewQuoteStream creates a watchlist quote stream.
func NewQuoteStream(lgr *logger.Logger, metrics domainrepo.Metrics, apiKey, websocketURL string, symbols []string) *QuoteStream {
	return &QuoteStream{
		logger:         lgr,
		metrics:        metrics,
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: 5 * time.Second,
		pingInterval:   20 * time.Second,
	}
}

type wsTrade struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Run connects, subscribes and pumps quotes until ctx is cancelled,
// reconnecting on read failures. Intended to run in its own goroutine.
func (s *QuoteStream) Run(ctx context.Context) {
	if len(s.symbols) == 0 {
		s.logger.Info("quote stream disabled: empty watchlist")
		return
	}

	for {
		if err := s.connect(ctx); err != nil {
			s.logger.Error("quote stream connect", logger.Error(err))
		} else {
			s.pump(ctx)
		}

		s.close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *QuoteStream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	s.conn = conn

	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}

	s.logger.Info("quote stream connected",
		logger.Int("symbols", len(s.symbols)))
	return nil
}

func (s *QuoteStream) pump(ctx context.Context) {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, b, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("quote stream read", logger.Error(err))
			}
			return
		}

		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			continue // ignore non-trade frames
		}
		for _, t := range m.Data {
			s.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

func (s *QuoteStream) close() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

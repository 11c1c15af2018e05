package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"CandleView/internal/model"
)

// PriceHandler receives every streamed ticker.
type PriceHandler func(model.Ticker)

// BinanceStream follows the Binance mini-ticker websocket for one symbol.
type BinanceStream struct {
	URL      string
	Symbol   string
	handlers []PriceHandler
}

// NewBinanceStream creates a stream. An empty baseURL selects the public endpoint.
func NewBinanceStream(baseURL, symbol string) *BinanceStream {
	if baseURL == "" {
		baseURL = "wss://stream.binance.com:9443"
	}
	return &BinanceStream{URL: baseURL, Symbol: symbol}
}

// AddHandler registers a handler called for each ticker.
func (b *BinanceStream) AddHandler(h PriceHandler) {
	b.handlers = append(b.handlers, h)
}

// miniTicker is the 24hr mini ticker payload.
type miniTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// Run dials the stream and dispatches tickers until ctx is done or the
// connection fails.
func (b *BinanceStream) Run(ctx context.Context) error {
	stream := strings.ToLower(model.NormalizeSymbol(b.Symbol)) + "@miniTicker"
	url := fmt.Sprintf("%s/ws/%s", strings.TrimRight(b.URL, "/"), stream)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial binance stream: %w", err)
	}
	defer conn.Close()
	log.Infof("connected to binance stream %s", stream)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read binance stream: %w", err)
		}

		ticker, err := parseMiniTicker(message)
		if err != nil {
			log.Debugf("skip stream message: %v", err)
			continue
		}
		for _, h := range b.handlers {
			h(ticker)
		}
	}
}

// RunWithRetry keeps the stream alive, waiting backoff between reconnects.
func (b *BinanceStream) RunWithRetry(ctx context.Context, backoff time.Duration) {
	for {
		if err := b.Run(ctx); err != nil {
			log.Warnf("binance stream: %v, reconnecting in %v", err, backoff)
		}
		select {
		case <-ctx.Done():
			log.Info("binance stream stopped")
			return
		case <-time.After(backoff):
		}
	}
}

func parseMiniTicker(message []byte) (model.Ticker, error) {
	var mt miniTicker
	if err := json.Unmarshal(message, &mt); err != nil {
		return model.Ticker{}, err
	}
	if mt.Close == "" {
		return model.Ticker{}, fmt.Errorf("no close price in %q", string(message))
	}
	price, err := strconv.ParseFloat(mt.Close, 64)
	if err != nil {
		return model.Ticker{}, fmt.Errorf("failed to parse price: %v", err)
	}
	return model.Ticker{
		Symbol: mt.Symbol,
		Price:  price,
		At:     time.UnixMilli(mt.EventTime),
	}, nil
}

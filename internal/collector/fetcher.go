package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CandleView/internal/model"
)

// Fetcher defines the interface for fetching market data from an exchange.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCSample, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// Exchange names understood by NewFetcher.
const (
	Binance = "binance"
	Bybit   = "bybit"
	Bitget  = "bitget"
	Mock    = "mock"
)

var exchangeAliases = map[string]string{
	"binance": Binance,
	"바이낸스":    Binance,
	"bybit":   Bybit,
	"바이비트":    Bybit,
	"bitget":  Bitget,
	"비트겟":     Bitget,
	"mock":    Mock,
}

// Timeframes supported by every fetcher.
var Timeframes = []string{"1m", "5m", "15m", "1h", "4h", "1d"}

// CanonicalExchange resolves an exchange name or alias.
func CanonicalExchange(name string) (string, error) {
	if ex, ok := exchangeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return ex, nil
	}
	return "", fmt.Errorf("unknown exchange %q", name)
}

// ValidTimeframe reports whether tf is one of Timeframes.
func ValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// NewFetcher builds the fetcher for an exchange. An empty baseURL selects
// the exchange's public endpoint.
func NewFetcher(exchange, baseURL, proxyURL string) (Fetcher, error) {
	ex, err := CanonicalExchange(exchange)
	if err != nil {
		return nil, err
	}
	switch ex {
	case Binance:
		return NewBinanceFetcher(baseURL, proxyURL), nil
	case Bybit:
		return NewBybitFetcher(baseURL, proxyURL), nil
	case Bitget:
		return NewBitgetFetcher(baseURL, proxyURL), nil
	default:
		return NewMockFetcher(50000), nil
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// getJSON performs a GET and decodes a JSON body into out.
func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// toFloat parses the string or number fields exchanges use for prices.
func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	case json.Number:
		return n.Float64()
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}

// toMillis parses a millisecond timestamp given as a string or number.
func toMillis(v interface{}) (time.Time, error) {
	switch n := v.(type) {
	case float64:
		return time.UnixMilli(int64(n)).UTC(), nil
	case string:
		ms, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

// parseRow turns an exchange kline row [ts, o, h, l, c, v, ...] into a sample.
func parseRow(row []interface{}) (model.OHLCSample, error) {
	if len(row) < 6 {
		return model.OHLCSample{}, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
	}
	ts, err := toMillis(row[0])
	if err != nil {
		return model.OHLCSample{}, fmt.Errorf("open time: %w", err)
	}
	var vals [5]float64
	for i := range vals {
		if vals[i], err = toFloat(row[i+1]); err != nil {
			return model.OHLCSample{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
	}
	return model.OHLCSample{
		OpenTime: ts,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

func parseRows(rows [][]interface{}) ([]model.OHLCSample, error) {
	samples := make([]model.OHLCSample, 0, len(rows))
	for _, row := range rows {
		s, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

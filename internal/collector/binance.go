package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"CandleView/internal/model"
)

// BinanceFetcher implements Fetcher using the Binance spot REST API.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string) *BinanceFetcher {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *BinanceFetcher) Name() string { return Binance }

// FetchCandles loads the most recent klines, oldest first.
func (f *BinanceFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCSample, error) {
	if !ValidTimeframe(timeframe) {
		return nil, fmt.Errorf("binance: unsupported timeframe %q", timeframe)
	}
	q := url.Values{}
	q.Set("symbol", model.NormalizeSymbol(symbol))
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, q.Encode())

	var rows [][]interface{}
	if err := getJSON(ctx, f.Client, endpoint, &rows); err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	samples, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	// Ensure chronological order
	sort.Slice(samples, func(i, j int) bool { return samples[i].OpenTime.Before(samples[j].OpenTime) })
	model.Reindex(samples)
	return samples, nil
}

// FetchCurrentPrice returns the last traded price.
func (f *BinanceFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.BaseURL, url.QueryEscape(model.NormalizeSymbol(symbol)))
	var result struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := getJSON(ctx, f.Client, endpoint, &result); err != nil {
		return 0, fmt.Errorf("binance ticker: %w", err)
	}
	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance ticker: parse price %q: %w", result.Price, err)
	}
	return price, nil
}

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

// BybitFetcher implements Fetcher using the Bybit v5 spot market API.
type BybitFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBybitFetcher creates a new Bybit fetcher.
func NewBybitFetcher(baseURL, proxyURL string) *BybitFetcher {
	if baseURL == "" {
		baseURL = "https://api.bybit.com"
	}
	return &BybitFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *BybitFetcher) Name() string { return Bybit }

var bybitIntervals = map[string]string{
	"1m":  "1",
	"5m":  "5",
	"15m": "15",
	"1h":  "60",
	"4h":  "240",
	"1d":  "D",
}

// bybitResponse is the envelope shared by v5 market endpoints.
type bybitResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []interface{} `json:"list"`
	} `json:"result"`
}

func (f *BybitFetcher) get(ctx context.Context, path string, q url.Values) ([]interface{}, error) {
	var resp bybitResponse
	if err := getJSON(ctx, f.Client, f.BaseURL+path+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("api error %d: %s", resp.RetCode, resp.RetMsg)
	}
	return resp.Result.List, nil
}

// FetchCandles loads klines. Bybit lists newest first; the result is re-sorted.
func (f *BybitFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCSample, error) {
	interval, ok := bybitIntervals[timeframe]
	if !ok {
		return nil, fmt.Errorf("bybit: unsupported timeframe %q", timeframe)
	}
	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", model.NormalizeSymbol(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	list, err := f.get(ctx, "/v5/market/kline", q)
	if err != nil {
		return nil, fmt.Errorf("bybit kline: %w", err)
	}
	rows := make([][]interface{}, 0, len(list))
	for _, item := range list {
		row, ok := item.([]interface{})
		if !ok {
			return nil, fmt.Errorf("bybit kline: unexpected row type %T", item)
		}
		rows = append(rows, row)
	}
	samples, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("bybit kline: %w", err)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].OpenTime.Before(samples[j].OpenTime) })
	model.Reindex(samples)
	return samples, nil
}

// FetchCurrentPrice returns lastPrice from the spot ticker.
func (f *BybitFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", model.NormalizeSymbol(symbol))

	list, err := f.get(ctx, "/v5/market/tickers", q)
	if err != nil {
		return 0, fmt.Errorf("bybit ticker: %w", err)
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("bybit ticker: no data returned")
	}
	ticker, ok := list[0].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("bybit ticker: unexpected item type %T", list[0])
	}
	price, err := toFloat(ticker["lastPrice"])
	if err != nil {
		return 0, fmt.Errorf("bybit ticker: lastPrice: %w", err)
	}
	return price, nil
}

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

// BitgetFetcher implements Fetcher using the Bitget v2 spot market API.
type BitgetFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBitgetFetcher creates a new Bitget fetcher.
func NewBitgetFetcher(baseURL, proxyURL string) *BitgetFetcher {
	if baseURL == "" {
		baseURL = "https://api.bitget.com"
	}
	return &BitgetFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *BitgetFetcher) Name() string { return Bitget }

var bitgetGranularities = map[string]string{
	"1m":  "1min",
	"5m":  "5min",
	"15m": "15min",
	"1h":  "1h",
	"4h":  "4h",
	"1d":  "1day",
}

const bitgetOK = "00000"

// FetchCandles loads spot candles, oldest first.
func (f *BitgetFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCSample, error) {
	gran, ok := bitgetGranularities[timeframe]
	if !ok {
		return nil, fmt.Errorf("bitget: unsupported timeframe %q", timeframe)
	}
	q := url.Values{}
	q.Set("symbol", model.NormalizeSymbol(symbol))
	q.Set("granularity", gran)
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data [][]interface{} `json:"data"`
	}
	if err := getJSON(ctx, f.Client, f.BaseURL+"/api/v2/spot/market/candles?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("bitget candles: %w", err)
	}
	if resp.Code != bitgetOK {
		return nil, fmt.Errorf("bitget candles: api error %s: %s", resp.Code, resp.Msg)
	}
	samples, err := parseRows(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("bitget candles: %w", err)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].OpenTime.Before(samples[j].OpenTime) })
	model.Reindex(samples)
	return samples, nil
}

// FetchCurrentPrice returns lastPr from the spot ticker.
func (f *BitgetFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", model.NormalizeSymbol(symbol))

	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Symbol string `json:"symbol"`
			LastPr string `json:"lastPr"`
		} `json:"data"`
	}
	if err := getJSON(ctx, f.Client, f.BaseURL+"/api/v2/spot/market/tickers?"+q.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("bitget ticker: %w", err)
	}
	if resp.Code != bitgetOK {
		return 0, fmt.Errorf("bitget ticker: api error %s: %s", resp.Code, resp.Msg)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("bitget ticker: no data returned")
	}
	price, err := strconv.ParseFloat(resp.Data[0].LastPr, 64)
	if err != nil {
		return 0, fmt.Errorf("bitget ticker: parse price %q: %w", resp.Data[0].LastPr, err)
	}
	return price, nil
}

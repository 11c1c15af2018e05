package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCanonicalExchange(t *testing.T) {
	tests := map[string]string{
		"binance": Binance,
		" Bybit ": Bybit,
		"비트겟":     Bitget,
		"바이낸스":    Binance,
		"MOCK":    Mock,
	}
	for in, want := range tests {
		got, err := CanonicalExchange(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := CanonicalExchange("kraken")
	assert.Error(t, err)
}

func TestValidTimeframe(t *testing.T) {
	assert.True(t, ValidTimeframe("1h"))
	assert.True(t, ValidTimeframe("1d"))
	assert.False(t, ValidTimeframe("2h"))
	assert.False(t, ValidTimeframe(""))
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher("바이비트", "", "")
	require.NoError(t, err)
	assert.Equal(t, Bybit, f.Name())

	f, err = NewFetcher("mock", "", "")
	require.NoError(t, err)
	assert.Equal(t, Mock, f.Name())

	_, err = NewFetcher("nope", "", "")
	assert.Error(t, err)
}

func TestBinanceFetcher(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v3/klines": `[
			[1700003600000,"101","110","100","105","7",1700007199999],
			[1700000000000,"100","102","95","101","3",1700003599999]
		]`,
		"/api/v3/ticker/price": `{"symbol":"BTCUSDT","price":"105.5"}`,
	})
	f := NewBinanceFetcher(srv.URL, "")
	ctx := context.Background()

	samples, err := f.FetchCandles(ctx, "BTC/USDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, int64(0), samples[0].Index)
	assert.Equal(t, 100.0, samples[0].Open)
	assert.Equal(t, 95.0, samples[0].Low)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), samples[0].OpenTime)
	assert.Equal(t, int64(1), samples[1].Index)
	assert.Equal(t, 105.0, samples[1].Close)

	price, err := f.FetchCurrentPrice(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 105.5, price)

	_, err = f.FetchCandles(ctx, "BTC/USDT", "2h", 2)
	assert.Error(t, err)
}

func TestBinanceFetcherHTTPError(t *testing.T) {
	srv := serve(t, map[string]string{})
	f := NewBinanceFetcher(srv.URL, "")

	_, err := f.FetchCandles(context.Background(), "BTCUSDT", "1h", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestBybitFetcher(t *testing.T) {
	srv := serve(t, map[string]string{
		"/v5/market/kline": `{"retCode":0,"retMsg":"OK","result":{"list":[
			["1700003600000","101","110","100","105","7","700"],
			["1700000000000","100","102","95","101","3","300"]
		]}}`,
		"/v5/market/tickers": `{"retCode":0,"retMsg":"OK","result":{"list":[{"symbol":"BTCUSDT","lastPrice":"104.25"}]}}`,
	})
	f := NewBybitFetcher(srv.URL, "")
	ctx := context.Background()

	samples, err := f.FetchCandles(ctx, "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.True(t, samples[0].OpenTime.Before(samples[1].OpenTime))
	assert.Equal(t, 101.0, samples[0].Close)
	assert.Equal(t, 110.0, samples[1].High)

	price, err := f.FetchCurrentPrice(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 104.25, price)
}

func TestBybitFetcherAPIError(t *testing.T) {
	srv := serve(t, map[string]string{
		"/v5/market/kline": `{"retCode":10001,"retMsg":"params error","result":{"list":[]}}`,
	})
	f := NewBybitFetcher(srv.URL, "")

	_, err := f.FetchCandles(context.Background(), "BTCUSDT", "1h", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params error")
}

func TestBitgetFetcher(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v2/spot/market/candles": `{"code":"00000","msg":"success","data":[
			["1700000000000","100","102","95","101","3","300","300"],
			["1700003600000","101","110","100","105","7","700","700"]
		]}`,
		"/api/v2/spot/market/tickers": `{"code":"00000","msg":"success","data":[{"symbol":"BTCUSDT","lastPr":"103"}]}`,
	})
	f := NewBitgetFetcher(srv.URL, "")
	ctx := context.Background()

	samples, err := f.FetchCandles(ctx, "BTC/USDT", "1d", 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 100.0, samples[0].Open)
	assert.Equal(t, 105.0, samples[1].Close)

	price, err := f.FetchCurrentPrice(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 103.0, price)
}

func TestBitgetFetcherAPIError(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v2/spot/market/tickers": `{"code":"40034","msg":"symbol not exist","data":[]}`,
	})
	f := NewBitgetFetcher(srv.URL, "")

	_, err := f.FetchCurrentPrice(context.Background(), "XXXUSDT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40034")
}

func TestParseRowShort(t *testing.T) {
	_, err := parseRow([]interface{}{"1", "2"})
	assert.Error(t, err)
}

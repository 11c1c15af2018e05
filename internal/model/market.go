package model

import (
	"strings"
	"time"
)

// OHLCSample is one candle as delivered by a market data source.
// Index is the sample's position in the sequence it was fetched with.
type OHLCSample struct {
	Index    int64     `csv:"index"`
	OpenTime time.Time `csv:"open_time"`
	Open     float64   `csv:"open"`
	High     float64   `csv:"high"`
	Low      float64   `csv:"low"`
	Close    float64   `csv:"close"`
	Volume   float64   `csv:"volume"`
}

// Valid reports whether high and low enclose both open and close.
func (s OHLCSample) Valid() bool {
	return s.Low <= s.Open && s.Low <= s.Close && s.High >= s.Open && s.High >= s.Close
}

// Ticker is the last traded price of a symbol.
type Ticker struct {
	Symbol string
	Price  float64
	At     time.Time
}

// Reindex assigns Index 0..n-1 in slice order.
func Reindex(samples []OHLCSample) {
	for i := range samples {
		samples[i].Index = int64(i)
	}
}

// NormalizeSymbol turns "BTC/USDT" or "btc-usdt" into "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	r := strings.NewReplacer("/", "", "-", "", "_", "", " ", "")
	return strings.ToUpper(r.Replace(symbol))
}

var quoteAssets = []string{"USDT", "USDC", "BUSD", "USD", "KRW", "BTC"}

// BaseCoin returns the traded asset of a symbol: "BTC/USDT" and "BTCUSDT" give "BTC".
func BaseCoin(symbol string) string {
	if i := strings.IndexAny(symbol, "/-_"); i > 0 {
		return strings.ToUpper(strings.TrimSpace(symbol[:i]))
	}
	s := NormalizeSymbol(symbol)
	for _, q := range quoteAssets {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return strings.TrimSuffix(s, q)
		}
	}
	return s
}

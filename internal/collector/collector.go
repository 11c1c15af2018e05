package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"CandleView/internal/model"
)

// ErrNoData is returned when neither a fresh nor a cached snapshot exists.
var ErrNoData = errors.New("no market data available")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu      sync.Mutex
	Price   float64
	Candles []model.OHLCSample
	Err     error
}

// NewMockFetcher creates a mock that generates candles around price.
func NewMockFetcher(price float64) *MockFetcher {
	return &MockFetcher{Price: price}
}

func (m *MockFetcher) Name() string { return Mock }

func (m *MockFetcher) FetchCandles(_ context.Context, _, timeframe string, limit int) ([]model.OHLCSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Candles != nil {
		out := make([]model.OHLCSample, len(m.Candles))
		copy(out, m.Candles)
		return out, nil
	}
	return GenerateMockCandles(m.Price, limit, timeframeDuration(timeframe), time.Now()), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, _ string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Price, nil
}

// SetErr makes subsequent fetches fail with err (nil restores them).
func (m *MockFetcher) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// GenerateMockCandles produces count alternating candles ending at end.
func GenerateMockCandles(basePrice float64, count int, step time.Duration, end time.Time) []model.OHLCSample {
	if count < 0 {
		count = 0
	}
	bars := make([]model.OHLCSample, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		open, close := p*0.999, p
		if i%3 == 2 {
			open, close = close, open
		}
		bars[i] = model.OHLCSample{
			Index:    int64(i),
			OpenTime: end.Add(-time.Duration(count-i) * step).Truncate(step),
			Open:     open,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    close,
			Volume:   1000,
		}
	}
	return bars
}

func timeframeDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Snapshot is one successful poll of the market.
type Snapshot struct {
	Symbol    string
	Timeframe string
	Samples   []model.OHLCSample
	Price     float64
	FetchedAt time.Time
}

// Collector polls a Fetcher and remembers the last good snapshot.
type Collector struct {
	Fetcher   Fetcher
	Symbol    string
	Timeframe string
	Limit     int

	lastGood *cache.Cache
}

// NewCollector creates a new Collector. Cached snapshots expire after keep.
func NewCollector(fetcher Fetcher, symbol, timeframe string, limit int, keep time.Duration) *Collector {
	if keep <= 0 {
		keep = cache.NoExpiration
	}
	return &Collector{
		Fetcher:   fetcher,
		Symbol:    symbol,
		Timeframe: timeframe,
		Limit:     limit,
		lastGood:  cache.New(keep, 10*time.Minute),
	}
}

func (c *Collector) key() string {
	return c.Fetcher.Name() + "|" + model.NormalizeSymbol(c.Symbol) + "|" + c.Timeframe
}

// Collect fetches candles and the current price. ok is false when the fetch
// failed; the returned snapshot is then the last good one (zero if none), and
// the caller should skip rendering.
func (c *Collector) Collect(ctx context.Context) (Snapshot, bool) {
	snap, err := c.fetch(ctx)
	if err != nil {
		log.Warnf("collect %s %s from %s: %v", c.Symbol, c.Timeframe, c.Fetcher.Name(), err)
		last, _ := c.LastGood()
		return last, false
	}
	c.lastGood.Set(c.key(), snap, cache.DefaultExpiration)
	return snap, true
}

func (c *Collector) fetch(ctx context.Context) (Snapshot, error) {
	samples, err := c.Fetcher.FetchCandles(ctx, c.Symbol, c.Timeframe, c.Limit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch candles: %w", err)
	}
	if len(samples) == 0 {
		return Snapshot{}, fmt.Errorf("fetch candles: %w", ErrNoData)
	}

	price, err := c.Fetcher.FetchCurrentPrice(ctx, c.Symbol)
	if err != nil {
		// Fresh candles are still worth drawing; fall back to a known price.
		log.Warnf("fetch current price: %v", err)
		if last, lerr := c.LastGood(); lerr == nil && last.Price > 0 {
			price = last.Price
		} else {
			price = samples[len(samples)-1].Close
		}
	}

	return Snapshot{
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe,
		Samples:   samples,
		Price:     price,
		FetchedAt: time.Now(),
	}, nil
}

// LastGood returns the most recent successful snapshot.
func (c *Collector) LastGood() (Snapshot, error) {
	v, ok := c.lastGood.Get(c.key())
	if !ok {
		return Snapshot{}, ErrNoData
	}
	return v.(Snapshot), nil
}

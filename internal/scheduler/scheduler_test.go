package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleView/internal/chart"
	"CandleView/internal/collector"
	"CandleView/internal/ledger"
	"CandleView/internal/model"
	"CandleView/internal/recorder"
	"CandleView/internal/servertime"
)

type fixture struct {
	s     *Scheduler
	mock  *collector.MockFetcher
	start time.Time
}

func newFixture(t *testing.T, rec recorder.Recorder) *fixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", "Mon, 04 Mar 2024 00:05:07 GMT")
	}))
	t.Cleanup(srv.Close)

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	mock := collector.NewMockFetcher(100)
	mock.Candles = collector.GenerateMockCandles(100, 10, time.Hour, start)

	lm, err := ledger.NewManager("", 1000)
	require.NoError(t, err)
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	col := collector.NewCollector(mock, "BTC/USDT", "1h", 10, time.Hour)
	canvas := chart.NewCanvas(640, 360, 0.3)
	s := NewScheduler(context.Background(), col, canvas, lm, servertime.NewFetcher(srv.URL, "Asia/Seoul", ""), nil, rec, 7)
	s.OutputDir = filepath.Join(t.TempDir(), "charts")
	s.now = func() time.Time { return start.Add(10 * time.Hour) }
	return &fixture{s: s, mock: mock, start: start}
}

func TestRunNowWritesChartAndClock(t *testing.T) {
	f := newFixture(t, nil)
	f.s.RunNow()

	data, err := os.ReadFile(f.s.ChartPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "BTC/USDT: 100.0")

	clock, err := os.ReadFile(filepath.Join(f.s.OutputDir, "clock.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04(월) 09:05:07\n", string(clock))
	assert.Equal(t, 100.0, f.s.Price())
}

func TestRefreshSkipsOnFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.s.refreshTask()
	before, err := os.ReadFile(f.s.ChartPath())
	require.NoError(t, err)

	f.mock.SetErr(errors.New("exchange down"))
	f.s.Canvas.SetPriceLabel("changed")
	f.s.refreshTask()

	after, err := os.ReadFile(f.s.ChartPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefreshPlacesMarkersForSymbol(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.s.Ledger.Open(model.SideLong, "BTC", 1, 100, 1, f.start.Add(3*time.Hour+time.Minute))
	require.NoError(t, err)
	_, err = f.s.Ledger.Open(model.SideShort, "ETH", 1, 100, 1, f.start.Add(3*time.Hour))
	require.NoError(t, err)

	f.s.refreshTask()

	data, err := os.ReadFile(f.s.ChartPath())
	require.NoError(t, err)
	// green long-open triangle, no red short-open one
	assert.Contains(t, string(data), "rgba(0,255,0,1.0)")
	assert.NotContains(t, string(data), "rgba(255,0,0,1.0)")
}

func TestProfitTask(t *testing.T) {
	f := newFixture(t, nil)
	f.s.refreshTask()
	_, err := f.s.Ledger.Open(model.SideLong, "BTC", 1, 50, 1, f.start)
	require.NoError(t, err)

	f.s.profitTask()

	assert.Equal(t, 1, f.s.History.Len())
	// 1 BTC bought at 50, now 100: +50 on 1000
	assert.InDelta(t, 5.0, f.s.History.Last(), 1e-9)
	_, err = os.Stat(f.s.ProfitPath())
	assert.NoError(t, err)

	rates := f.s.Rates()
	assert.InDelta(t, 5.0, rates.MyRate, 1e-9)
	assert.InDelta(t, 0.0, rates.Total, 1e-9)
}

func TestLoadHistory(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer rec.Close()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, rec.RecordProfit(day.AddDate(0, 0, i), float64(i)))
	}

	f := newFixture(t, rec)
	require.NoError(t, f.s.LoadHistory())

	assert.Equal(t, 7, f.s.History.Len())
	assert.Equal(t, 9.0, f.s.History.Last())
	assert.Len(t, f.s.equity, 10)
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, "no price yet", f.s.HandleCommand("/price").Text)
	assert.Equal(t, "no trades", f.s.HandleCommand("/trades").Text)
	assert.Contains(t, f.s.HandleCommand("/chart").Text, "no chart yet")

	f.s.RunNow()
	assert.Equal(t, "BTC/USDT: 100.0", f.s.HandleCommand("/price").Text)

	_, err := f.s.Ledger.Open(model.SideShort, "BTC", 0.5, 110, 10, f.start)
	require.NoError(t, err)
	trades := f.s.HandleCommand("/trades").Text
	assert.True(t, strings.HasPrefix(trades, "<pre>"))
	assert.Contains(t, trades, "0.50000000")
	assert.Contains(t, trades, "121.00")

	assert.Contains(t, f.s.HandleCommand("/profit").Text, "My Rate")

	reply := f.s.HandleCommand("/chart line")
	assert.Equal(t, chart.ModeLine, f.s.Canvas.Mode())
	assert.Contains(t, reply.Text, "(line)")
	assert.Empty(t, reply.Photo)

	assert.Contains(t, f.s.HandleCommand("/chart bars").Text, "unknown chart mode")
	assert.Contains(t, f.s.HandleCommand("hello").Text, "Available commands")
	assert.Contains(t, f.s.HandleCommand("").Text, "Available commands")
}

func TestChartReplyPNG(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Format = chart.FormatPNG
	f.s.refreshTask()

	reply := f.s.HandleCommand("/chart")
	assert.Equal(t, f.s.ChartPath(), reply.Photo)
	assert.Equal(t, "BTC/USDT (candle)", reply.Text)
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.s.RegisterAll("0 * * * * *", "* * * * * *", "0 0 0 * * *"))
	assert.Len(t, f.s.Cron.Entries(), 3)

	assert.Error(t, f.s.RegisterAll("not a cron", "* * * * * *", "0 0 0 * * *"))
}

// gatedFetcher blocks candle fetches until release is closed and tracks how
// many run at once.
type gatedFetcher struct {
	*collector.MockFetcher
	entered chan struct{}
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
}

func (g *gatedFetcher) FetchCandles(ctx context.Context, symbol, tf string, limit int) ([]model.OHLCSample, error) {
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	return g.MockFetcher.FetchCandles(ctx, symbol, tf, limit)
}

func TestRefreshNeverOverlaps(t *testing.T) {
	f := newFixture(t, nil)
	gate := &gatedFetcher{
		MockFetcher: f.mock,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	f.s.Collector.Fetcher = gate
	require.NoError(t, f.s.RegisterAll("* * * * * *", "0 0 0 1 1 *", "0 0 0 1 1 *"))
	f.s.Start()
	defer f.s.Stop()

	done := make(chan struct{})
	go func() {
		f.s.RunNow()
		close(done)
	}()

	select {
	case <-gate.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("no refresh started")
	}
	// a second start-up refresh and at least one cron tick land while the first is blocked
	f.s.RunNow()
	time.Sleep(1200 * time.Millisecond)
	close(gate.release)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
	}
	assert.Equal(t, int32(1), gate.peak.Load())
}

func TestProfitTaskKeepsOnePointPerDay(t *testing.T) {
	f := newFixture(t, nil)
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := day.Add(time.Duration(i) * time.Hour)
		f.s.now = func() time.Time { return at }
		f.s.profitTask()
	}
	assert.Equal(t, 1, f.s.History.Len())
	assert.Len(t, f.s.equity, 1)

	for i := 1; i <= 400; i++ {
		at := day.AddDate(0, 0, i)
		f.s.now = func() time.Time { return at }
		f.s.profitTask()
	}
	assert.Equal(t, 7, f.s.History.Len())
	assert.Len(t, f.s.equity, f.s.historySize())
	assert.Equal(t, day.AddDate(0, 0, 400), f.s.equity[len(f.s.equity)-1].At)
}

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"CandleView/internal/chart"
	"CandleView/internal/collector"
	"CandleView/internal/ledger"
	"CandleView/internal/marker"
	"CandleView/internal/model"
	"CandleView/internal/notifier"
	"CandleView/internal/profit"
	"CandleView/internal/recorder"
	"CandleView/internal/servertime"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Canvas    *chart.Canvas
	Profit    *chart.ProfitChart
	History   *profit.History
	Ledger    *ledger.Manager
	Clock     *servertime.Fetcher
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	OutputDir string
	Format    chart.Format
	Ctx       context.Context

	refresh cron.Job

	mu     sync.Mutex
	price  float64
	equity []profit.EquityPoint
	now    func() time.Time
}

// NewScheduler creates a new Scheduler. Overlapping runs of a task are skipped.
// tn may be nil when Telegram is not configured.
func NewScheduler(ctx context.Context, col *collector.Collector, canvas *chart.Canvas, lm *ledger.Manager,
	clock *servertime.Fetcher, tn *notifier.TelegramNotifier, rec recorder.Recorder, historyDays int) *Scheduler {
	logger := cron.VerbosePrintfLogger(log.StandardLogger())
	s := &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Collector: col,
		Canvas:    canvas,
		Profit:    chart.NewProfitChart(canvas.Width, canvas.Height/2),
		History:   profit.NewHistory(historyDays),
		Ledger:    lm,
		Clock:     clock,
		Notifier:  tn,
		Recorder:  rec,
		OutputDir: "data/charts",
		Format:    chart.FormatSVG,
		Ctx:       ctx,
		now:       time.Now,
	}
	// Cron ticks and RunNow share one guard, so Canvas.Update never runs twice at once.
	s.refresh = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.refreshTask))
	return s
}

// RegisterAll registers the refresh, clock and profit snapshot tasks.
func (s *Scheduler) RegisterAll(refreshCron, clockCron, profitCron string) error {
	if _, err := s.Cron.AddJob(refreshCron, s.refresh); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(clockCron, s.clockTask); err != nil {
		return fmt.Errorf("register clock task: %w", err)
	}
	if _, err := s.Cron.AddFunc(profitCron, s.profitTask); err != nil {
		return fmt.Errorf("register profit task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunNow executes a clock tick and a refresh immediately, for start-up.
// The refresh is skipped when a scheduled one is still running.
func (s *Scheduler) RunNow() {
	s.clockTask()
	s.refresh.Run()
}

// LoadHistory seeds the profit history from the recorder.
func (s *Scheduler) LoadHistory() error {
	recs, err := s.Recorder.RecentProfits(s.historySize())
	if err != nil {
		return fmt.Errorf("load profit history: %w", err)
	}
	initial := s.Ledger.GetState().InitialBalance

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.History.Push(profit.Point{Day: r.Day, Rate: r.Rate})
		s.pushEquity(profit.EquityPoint{At: r.Day, Equity: initial * (1 + r.Rate/100)})
	}
	log.Infof("loaded %d profit history points", len(recs))
	return nil
}

// historySize covers a year of daily points so yearly rates have a reference.
func (s *Scheduler) historySize() int {
	return 366
}

// pushEquity keeps one snapshot per day, at most historySize of them.
// Callers hold s.mu.
func (s *Scheduler) pushEquity(p profit.EquityPoint) {
	if n := len(s.equity); n > 0 && profit.SameDay(s.equity[n-1].At, p.At) {
		s.equity[n-1] = p
		return
	}
	s.equity = append(s.equity, p)
	if over := len(s.equity) - s.historySize(); over > 0 {
		s.equity = append(s.equity[:0:0], s.equity[over:]...)
	}
}

// SetPrice updates the live price label. Live stream tickers land here.
func (s *Scheduler) SetPrice(price float64) {
	s.mu.Lock()
	s.price = price
	s.mu.Unlock()
	s.Canvas.SetPriceLabel(notifier.FormatPrice(s.Collector.Symbol, price))
}

// Price returns the last known price.
func (s *Scheduler) Price() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.price
}

func (s *Scheduler) prices() map[string]float64 {
	p := s.Price()
	if p <= 0 {
		return map[string]float64{}
	}
	return map[string]float64{model.BaseCoin(s.Collector.Symbol): p}
}

// ChartPath is where the market chart is written.
func (s *Scheduler) ChartPath() string {
	return filepath.Join(s.OutputDir, "chart."+string(s.Format))
}

// ProfitPath is where the profit chart is written.
func (s *Scheduler) ProfitPath() string {
	return filepath.Join(s.OutputDir, "profit."+string(s.Format))
}

func (s *Scheduler) refreshTask() {
	snap, ok := s.Collector.Collect(s.Ctx)
	if !ok {
		log.Debug("no new market data, keeping previous chart")
		return
	}

	s.Canvas.Update(snap.Samples)
	s.SetPrice(snap.Price)
	s.placeMarkers(snap.Samples)

	if err := s.Canvas.WriteFile(s.ChartPath(), s.Format); err != nil {
		log.Errorf("write chart: %v", err)
	}
	if err := s.Recorder.RecordCandles(snap.Symbol, snap.Timeframe, snap.Samples); err != nil {
		log.Errorf("record candles: %v", err)
	}
	log.Debugf("rendered %d candles at %.2f", len(snap.Samples), snap.Price)
}

func (s *Scheduler) placeMarkers(samples []model.OHLCSample) {
	if err := s.Ledger.Reload(); err != nil {
		log.Warnf("%v", err)
	}
	events := s.Ledger.EventsFor(model.BaseCoin(s.Collector.Symbol))
	markers, err := marker.FromEvents(samples, events)
	if err != nil {
		log.Warnf("place markers: %v", err)
	}
	s.Canvas.SetMarkers(markers)
}

func (s *Scheduler) clockTask() {
	label := servertime.Label(s.Clock.Now(s.Ctx))
	s.Canvas.SetTimeLabel(label)

	path := filepath.Join(s.OutputDir, "clock.txt")
	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		log.Errorf("create output dir: %v", err)
		return
	}
	if err := os.WriteFile(path, []byte(label+"\n"), 0644); err != nil {
		log.Errorf("write clock: %v", err)
	}
}

func (s *Scheduler) profitTask() {
	if err := s.Ledger.Reload(); err != nil {
		log.Warnf("%v", err)
	}
	now := s.now()
	prices := s.prices()
	rate := s.Ledger.TotalReturnPct(prices)
	equity := s.Ledger.Equity(prices)

	s.mu.Lock()
	s.History.Push(profit.Point{Day: now, Rate: rate})
	s.pushEquity(profit.EquityPoint{At: now, Equity: equity})
	s.mu.Unlock()

	if err := s.Recorder.RecordProfit(now, rate); err != nil {
		log.Errorf("record profit: %v", err)
	}
	if err := s.writeProfitChart(now); err != nil {
		log.Errorf("write profit chart: %v", err)
	}
	log.Infof("profit snapshot: %+.2f%%", rate)
	s.trySend("📈 <b>Daily profit</b>\n" + notifier.Pre(notifier.FormatProfitRates(s.Rates())))
}

func (s *Scheduler) writeProfitChart(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Profit.WriteFile(s.ProfitPath(), s.Format, s.History, now)
}

// Rates computes the profit-rate summary at the current price.
func (s *Scheduler) Rates() profit.Rates {
	prices := s.prices()
	current := s.Ledger.Equity(prices)
	myRate := s.Ledger.TotalReturnPct(prices)

	s.mu.Lock()
	points := append([]profit.EquityPoint(nil), s.equity...)
	s.mu.Unlock()
	return profit.ComputeRates(points, s.now(), current, myRate)
}

const helpText = `Available commands:
/price - current price
/trades - trade history
/profit - profit rates
/chart - current chart
/chart candle|line - switch chart mode`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) notifier.Reply {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.Reply{Text: helpText}
	}
	switch fields[0] {
	case "/price":
		if s.Price() <= 0 {
			return notifier.Reply{Text: "no price yet"}
		}
		return notifier.Reply{Text: notifier.FormatPrice(s.Collector.Symbol, s.Price())}
	case "/trades":
		if err := s.Ledger.Reload(); err != nil {
			log.Warnf("%v", err)
		}
		rows := s.Ledger.Rows(s.prices())
		if len(rows) == 0 {
			return notifier.Reply{Text: "no trades"}
		}
		return notifier.Reply{Text: notifier.Pre(notifier.FormatTradeHistory(rows))}
	case "/profit":
		return notifier.Reply{Text: notifier.Pre(notifier.FormatProfitRates(s.Rates()))}
	case "/chart":
		if len(fields) > 1 {
			mode, err := chart.ParseMode(fields[1])
			if err != nil {
				return notifier.Reply{Text: err.Error()}
			}
			s.Canvas.SetMode(mode)
			if err := s.Canvas.WriteFile(s.ChartPath(), s.Format); err != nil {
				return notifier.Reply{Text: fmt.Sprintf("chart mode set to %s, render failed: %v", mode, err)}
			}
		}
		return s.chartReply()
	default:
		return notifier.Reply{Text: helpText}
	}
}

// chartReply sends the chart as a photo when it is a PNG, and a status line otherwise.
func (s *Scheduler) chartReply() notifier.Reply {
	caption := fmt.Sprintf("%s (%s)", s.Collector.Symbol, s.Canvas.Mode())
	if _, err := os.Stat(s.ChartPath()); err != nil {
		return notifier.Reply{Text: caption + ": no chart yet"}
	}
	if s.Format == chart.FormatPNG {
		return notifier.Reply{Text: caption, Photo: s.ChartPath()}
	}
	return notifier.Reply{Text: caption + ": " + s.ChartPath()}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
	}
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"CandleView/internal/chart"
	"CandleView/internal/collector"
	"CandleView/internal/ledger"
	"CandleView/internal/model"
	"CandleView/internal/notifier"
	"CandleView/internal/scheduler"
	"CandleView/internal/servertime"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the exchange and keep chart files up to date",
	Long: `Run loads the config, renders immediately, then refreshes the chart on the
refresh schedule, updates the clock label every tick and snapshots the
total profit daily. With telegram configured it answers /price, /trades,
/profit and /chart.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var runNoStart bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runNoStart, "no-initial", false, "wait for the first scheduled refresh instead of rendering on start")
}

func runRun(cmd *cobra.Command, args []string) error {
	log.Info("CandleView starting...")

	fetcher, err := newFetcher()
	if err != nil {
		return err
	}
	col := collector.NewCollector(fetcher, cfg.Exchange.Symbol, cfg.Exchange.Timeframe, cfg.Exchange.Limit, 24*time.Hour)

	lm, err := ledger.NewManager(cfg.Ledger.StateFile, cfg.Ledger.InitialBalance)
	if err != nil {
		return err
	}

	rec := newRecorder()
	defer rec.Close()

	mode, _ := chart.ParseMode(cfg.Chart.Mode)
	format, _ := chart.ParseFormat(cfg.Chart.Format)
	canvas := chart.NewCanvas(cfg.Chart.Width, cfg.Chart.Height, cfg.Chart.BodyHalfWidth)
	canvas.SetMode(mode)

	clock := servertime.NewFetcher(cfg.TimeSource.URL, cfg.TimeSource.Timezone, cfg.Proxy)

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, canvas, lm, clock, tn, rec, cfg.Profit.HistoryDays)
	sched.OutputDir = cfg.Chart.OutputDir
	sched.Format = format
	if err := sched.LoadHistory(); err != nil {
		log.Warnf("%v", err)
	}
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.ClockCron, cfg.Schedule.ProfitCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if cfg.Exchange.LivePrice && fetcher.Name() == collector.Binance {
		stream := collector.NewBinanceStream(cfg.Exchange.StreamURL, cfg.Exchange.Symbol)
		stream.AddHandler(func(t model.Ticker) { sched.SetPrice(t.Price) })
		go stream.RunWithRetry(ctx, 5*time.Second)
		log.Info("live price stream started")
	} else if cfg.Exchange.LivePrice {
		log.Warnf("live price is only available for %s, using polled prices", collector.Binance)
	}

	if !runNoStart {
		go sched.RunNow()
	}

	log.Infof("CandleView is running, writing charts to %s. Press Ctrl+C to stop.", cfg.Chart.OutputDir)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	return nil
}

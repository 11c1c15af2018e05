package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"CandleView/internal/collector"
	"CandleView/internal/config"
	"CandleView/internal/recorder"
)

var rootCmd = &cobra.Command{
	Use:   "candleview",
	Short: "Live crypto candlestick charts with a paper-trading overlay",
	Long: `CandleView polls an exchange for OHLC candles, renders them as a candlestick
or close-line chart, and overlays simulated trades from a local ledger.

Commands:
  run     - poll on a schedule and keep chart files up to date
  render  - fetch once and write a chart
  export  - fetch candles and write them as CSV
  trade   - open, close and list paper trades
  time    - print the reference server time`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	cfgPath string
	useMock bool
	cfg     *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use generated market data instead of an exchange")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if useMock {
		c.Exchange.Name = collector.Mock
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	level, _ := log.ParseLevel(c.LogLevel)
	log.SetLevel(level)

	cfg = c
	return nil
}

func newFetcher() (collector.Fetcher, error) {
	f, err := collector.NewFetcher(cfg.Exchange.Name, cfg.Exchange.BaseURL, cfg.Proxy)
	if err != nil {
		return nil, err
	}
	log.Infof("data source: %s", f.Name())
	return f, nil
}

// newRecorder opens SQLite, falling back to a no-op recorder on failure.
func newRecorder() recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warnf("init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

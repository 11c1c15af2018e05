package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"CandleView/internal/chart"
	"CandleView/internal/collector"
	"CandleView/internal/render"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		Name      string `yaml:"name"`
		BaseURL   string `yaml:"base_url"`
		StreamURL string `yaml:"stream_url"`
		Symbol    string `yaml:"symbol"`
		Timeframe string `yaml:"timeframe"`
		Limit     int    `yaml:"limit"`
		LivePrice bool   `yaml:"live_price"`
	} `yaml:"exchange"`
	Chart struct {
		BodyHalfWidth float64 `yaml:"body_half_width"`
		Width         int     `yaml:"width"`
		Height        int     `yaml:"height"`
		Mode          string  `yaml:"mode"`
		OutputDir     string  `yaml:"output_dir"`
		Format        string  `yaml:"format"`
	} `yaml:"chart"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		ClockCron   string `yaml:"clock_cron"`
		ProfitCron  string `yaml:"profit_cron"`
	} `yaml:"schedule"`
	TimeSource struct {
		URL      string `yaml:"url"`
		Timezone string `yaml:"timezone"`
	} `yaml:"time_source"`
	Ledger struct {
		StateFile      string  `yaml:"state_file"`
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"ledger"`
	Profit struct {
		HistoryDays int `yaml:"history_days"`
	} `yaml:"profit"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	cfg := &Config{}
	cfg.Exchange.Name = collector.Binance
	cfg.Exchange.Symbol = "BTC/USDT"
	cfg.Exchange.Timeframe = "1h"
	cfg.Exchange.Limit = 100
	cfg.Chart.BodyHalfWidth = render.DefaultHalfWidth
	cfg.Chart.Width = 1280
	cfg.Chart.Height = 720
	cfg.Chart.Mode = string(chart.ModeCandle)
	cfg.Chart.OutputDir = "data/charts"
	cfg.Chart.Format = string(chart.FormatSVG)
	cfg.Schedule.RefreshCron = "0 * * * * *"
	cfg.Schedule.ClockCron = "* * * * * *"
	cfg.Schedule.ProfitCron = "0 0 0 * * *"
	cfg.TimeSource.URL = "https://www.naver.com"
	cfg.TimeSource.Timezone = "Asia/Seoul"
	cfg.Ledger.StateFile = "data/ledger_state.json"
	cfg.Ledger.InitialBalance = 10000
	cfg.Profit.HistoryDays = 7
	cfg.Database.SQLitePath = "data/candleview.db"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Variables from a .env file in the working directory are loaded
// first; they never replace variables already set in the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("load .env: %v", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"CANDLEVIEW_EXCHANGE", &c.Exchange.Name},
		{"CANDLEVIEW_SYMBOL", &c.Exchange.Symbol},
		{"CANDLEVIEW_TIMEFRAME", &c.Exchange.Timeframe},
		{"CANDLEVIEW_OUTPUT_DIR", &c.Chart.OutputDir},
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"HTTPS_PROXY", &c.Proxy},
		{"SQLITE_PATH", &c.Database.SQLitePath},
		{"LOG_LEVEL", &c.LogLevel},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("CANDLEVIEW_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Exchange.Limit = n
		}
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if _, err := collector.CanonicalExchange(c.Exchange.Name); err != nil {
		return fmt.Errorf("exchange.name: %w", err)
	}
	if c.Exchange.Symbol == "" {
		return fmt.Errorf("exchange.symbol is required")
	}
	if !collector.ValidTimeframe(c.Exchange.Timeframe) {
		return fmt.Errorf("exchange.timeframe %q must be one of %v", c.Exchange.Timeframe, collector.Timeframes)
	}
	if c.Exchange.Limit <= 0 {
		return fmt.Errorf("exchange.limit must be positive")
	}
	if err := render.ValidateHalfWidth(c.Chart.BodyHalfWidth); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if _, err := chart.ParseMode(c.Chart.Mode); err != nil {
		return fmt.Errorf("chart.mode: %w", err)
	}
	if _, err := chart.ParseFormat(c.Chart.Format); err != nil {
		return fmt.Errorf("chart.format: %w", err)
	}
	if c.Ledger.InitialBalance <= 0 {
		return fmt.Errorf("ledger.initial_balance must be positive")
	}
	if c.Profit.HistoryDays <= 0 {
		return fmt.Errorf("profit.history_days must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

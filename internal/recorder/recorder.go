package recorder

import (
	"time"

	"CandleView/internal/model"
)

// ProfitRecord is one stored daily total-profit rate.
type ProfitRecord struct {
	Day  time.Time
	Rate float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordCandles(symbol, timeframe string, samples []model.OHLCSample) error
	RecordTrade(trade model.Trade) error
	RecordProfit(day time.Time, rate float64) error
	RecentProfits(n int) ([]ProfitRecord, error)
	Close() error
}

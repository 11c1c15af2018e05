package recorder

import (
	"time"

	"CandleView/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCandles(_, _ string, _ []model.OHLCSample) error { return nil }
func (n *NoopRecorder) RecordTrade(_ model.Trade) error                       { return nil }
func (n *NoopRecorder) RecordProfit(_ time.Time, _ float64) error             { return nil }
func (n *NoopRecorder) RecentProfits(_ int) ([]ProfitRecord, error)           { return nil, nil }
func (n *NoopRecorder) Close() error                                          { return nil }

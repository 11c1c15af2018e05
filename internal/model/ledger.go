package model

import "time"

// Trade is one simulated position, open or closed.
type Trade struct {
	ID         string     `json:"id"`
	Coin       string     `json:"coin"`
	Side       Side       `json:"side"`
	Quantity   float64    `json:"quantity"`
	Leverage   float64    `json:"leverage"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	RealizedPL float64    `json:"realized_pl"`
}

// Closed reports whether the position has been closed.
func (t *Trade) Closed() bool { return t.ClosedAt != nil }

// PL returns the profit of the position if it were closed at price.
func (t *Trade) PL(price float64) float64 {
	diff := price - t.EntryPrice
	if t.Side == SideShort {
		diff = -diff
	}
	return diff * t.Quantity
}

// LedgerState is the persisted paper-trading account.
type LedgerState struct {
	InitialBalance float64   `json:"initial_balance"`
	Balance        float64   `json:"balance"`
	Trades         []Trade   `json:"trades"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TradeEvent is an open or close of a trade, used for chart markers.
type TradeEvent struct {
	TradeID string
	Type    TradeType
	Price   float64
	At      time.Time
}

// TradeRow is one line of the trade history table.
type TradeRow struct {
	Coin          string
	Quantity      float64
	LiqPrice      float64
	UnrealizedPct float64
	RealizedPL    float64
}

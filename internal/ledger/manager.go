package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"CandleView/internal/model"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeClosed   = errors.New("trade already closed")
)

// Manager keeps the paper-trading account with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.LedgerState
	filePath string
}

// NewManager creates a Manager, loading or initializing state from disk.
// An empty filePath keeps the ledger in memory only.
func NewManager(filePath string, initialBalance float64) (*Manager, error) {
	state := &model.LedgerState{}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
	}

	m := &Manager{state: state, filePath: filePath}
	if state.InitialBalance == 0 {
		state.InitialBalance = initialBalance
		state.Balance = initialBalance
		if err := m.save(); err != nil {
			return nil, fmt.Errorf("save ledger: %w", err)
		}
	}
	return m, nil
}

// Load reads the state file into an in-memory Manager. Nothing is written
// back to filePath; a missing file yields an empty ledger.
func Load(filePath string, initialBalance float64) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if state.InitialBalance == 0 {
		state.InitialBalance = initialBalance
		state.Balance = initialBalance
	}
	return &Manager{state: state}, nil
}

// GetState returns a copy of the current ledger.
func (m *Manager) GetState() model.LedgerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	s.Trades = append([]model.Trade(nil), m.state.Trades...)
	return s
}

// Reload re-reads the state file, picking up trades written by another process.
func (m *Manager) Reload() error {
	if m.filePath == "" {
		return nil
	}
	state, err := LoadState(m.filePath)
	if err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	if state.InitialBalance == 0 {
		return nil
	}
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	return nil
}

// Open records a new position. A leverage of 0 means 1x.
func (m *Manager) Open(side model.Side, coin string, qty, price, leverage float64, at time.Time) (model.Trade, error) {
	if qty <= 0 {
		return model.Trade{}, fmt.Errorf("quantity must be positive, got %v", qty)
	}
	if price <= 0 {
		return model.Trade{}, fmt.Errorf("price must be positive, got %v", price)
	}
	if leverage <= 0 {
		leverage = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := model.Trade{
		ID:         newID(at),
		Coin:       strings.ToUpper(coin),
		Side:       side,
		Quantity:   qty,
		Leverage:   leverage,
		EntryPrice: price,
		OpenedAt:   at,
	}
	m.state.Trades = append(m.state.Trades, t)

	if err := m.save(); err != nil {
		log.Errorf("failed to save ledger after open: %v", err)
	}
	return t, nil
}

// Close realises the profit of an open position at price.
func (m *Manager) Close(id string, price float64, at time.Time) (model.Trade, error) {
	if price <= 0 {
		return model.Trade{}, fmt.Errorf("price must be positive, got %v", price)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.Trades {
		t := &m.state.Trades[i]
		if t.ID != id {
			continue
		}
		if t.Closed() {
			return *t, fmt.Errorf("%s: %w", id, ErrTradeClosed)
		}
		closedAt := at
		t.ExitPrice = price
		t.ClosedAt = &closedAt
		t.RealizedPL = t.PL(price)
		m.state.Balance += t.RealizedPL

		if err := m.save(); err != nil {
			log.Errorf("failed to save ledger after close: %v", err)
		}
		return *t, nil
	}
	return model.Trade{}, fmt.Errorf("%s: %w", id, ErrTradeNotFound)
}

// Trades returns every trade in opening order.
func (m *Manager) Trades() []model.Trade {
	return m.GetState().Trades
}

// OpenTrades returns positions that have not been closed.
func (m *Manager) OpenTrades() []model.Trade {
	var out []model.Trade
	for _, t := range m.Trades() {
		if !t.Closed() {
			out = append(out, t)
		}
	}
	return out
}

// Events flattens trades into open/close events sorted by time.
func (m *Manager) Events() []model.TradeEvent {
	var evs []model.TradeEvent
	for _, t := range m.Trades() {
		evs = append(evs, model.TradeEvent{
			TradeID: t.ID,
			Type:    model.NewTradeType(t.Side, model.ActionOpen),
			Price:   t.EntryPrice,
			At:      t.OpenedAt,
		})
		if t.Closed() {
			evs = append(evs, model.TradeEvent{
				TradeID: t.ID,
				Type:    model.NewTradeType(t.Side, model.ActionClose),
				Price:   t.ExitPrice,
				At:      *t.ClosedAt,
			})
		}
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].At.Before(evs[j].At) })
	return evs
}

// EventsFor returns the events of trades in coin, sorted by time.
func (m *Manager) EventsFor(coin string) []model.TradeEvent {
	coin = strings.ToUpper(coin)
	ids := make(map[string]bool)
	for _, t := range m.Trades() {
		if t.Coin == coin {
			ids[t.ID] = true
		}
	}
	var out []model.TradeEvent
	for _, ev := range m.Events() {
		if ids[ev.TradeID] {
			out = append(out, ev)
		}
	}
	return out
}

// Rows builds the trade history table, one row per trade. prices maps coin
// to its current price; open trades without a price show no unrealized P/L.
func (m *Manager) Rows(prices map[string]float64) []model.TradeRow {
	trades := m.Trades()
	rows := make([]model.TradeRow, 0, len(trades))
	for _, t := range trades {
		row := model.TradeRow{
			Coin:       t.Coin,
			Quantity:   t.Quantity,
			RealizedPL: t.RealizedPL,
		}
		if !t.Closed() {
			row.LiqPrice = LiquidationPrice(t)
			if p, ok := prices[t.Coin]; ok {
				row.UnrealizedPct = UnrealizedPct(t, p)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Equity is the balance plus the unrealized profit of open positions.
func (m *Manager) Equity(prices map[string]float64) float64 {
	st := m.GetState()
	eq := st.Balance
	for _, t := range st.Trades {
		if t.Closed() {
			continue
		}
		if p, ok := prices[t.Coin]; ok {
			eq += t.PL(p)
		}
	}
	return eq
}

// TotalReturnPct is the equity change against the initial balance, in percent.
func (m *Manager) TotalReturnPct(prices map[string]float64) float64 {
	st := m.GetState()
	if st.InitialBalance == 0 {
		return 0
	}
	return (m.Equity(prices) - st.InitialBalance) / st.InitialBalance * 100
}

// LiquidationPrice is where a leveraged position loses its whole margin.
// Unleveraged positions have none and return 0.
func LiquidationPrice(t model.Trade) float64 {
	if t.Leverage <= 1 {
		return 0
	}
	if t.Side == model.SideShort {
		return t.EntryPrice * (1 + 1/t.Leverage)
	}
	return t.EntryPrice * (1 - 1/t.Leverage)
}

// UnrealizedPct is the leveraged return on margin at price, in percent.
func UnrealizedPct(t model.Trade, price float64) float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	lev := t.Leverage
	if lev <= 0 {
		lev = 1
	}
	return t.PL(price) / (t.EntryPrice * t.Quantity) * lev * 100
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}

package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"CandleView/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the renderer writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol     TEXT    NOT NULL,
			timeframe  TEXT    NOT NULL,
			open_time  INTEGER NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			volume     REAL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, timeframe, open_time)
		)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          TEXT PRIMARY KEY,
			coin        TEXT NOT NULL,
			side        TEXT NOT NULL,
			quantity    REAL,
			leverage    REAL,
			entry_price REAL,
			exit_price  REAL,
			opened_at   INTEGER NOT NULL,
			closed_at   INTEGER,
			realized_pl REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_opened ON trades(opened_at)`,

		`CREATE TABLE IF NOT EXISTS profit_history (
			day        TEXT PRIMARY KEY,
			rate       REAL NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordCandles upserts samples keyed on symbol, timeframe and open time.
func (r *SQLiteRecorder) RecordCandles(symbol, timeframe string, samples []model.OHLCSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO candles
		(symbol, timeframe, open_time, open, high, low, close, volume, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, timeframe, open_time) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume, updated_at=excluded.updated_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	sym := model.NormalizeSymbol(symbol)
	for _, s := range samples {
		if _, err := stmt.Exec(sym, timeframe, s.OpenTime.UnixMilli(),
			s.Open, s.High, s.Low, s.Close, s.Volume, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert candle %v: %w", s.OpenTime, err)
		}
	}
	return tx.Commit()
}

// CountCandles returns how many candles are stored for symbol and timeframe.
func (r *SQLiteRecorder) CountCandles(symbol, timeframe string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM candles WHERE symbol = ? AND timeframe = ?`,
		model.NormalizeSymbol(symbol), timeframe).Scan(&n)
	return n, err
}

// RecordTrade inserts or replaces a trade, so closing updates the open row.
func (r *SQLiteRecorder) RecordTrade(t model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closedAt sql.NullInt64
	if t.ClosedAt != nil {
		closedAt = sql.NullInt64{Int64: t.ClosedAt.Unix(), Valid: true}
	}
	_, err := r.db.Exec(`INSERT OR REPLACE INTO trades
		(id, coin, side, quantity, leverage, entry_price, exit_price, opened_at, closed_at, realized_pl)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Coin, string(t.Side), t.Quantity, t.Leverage,
		t.EntryPrice, t.ExitPrice, t.OpenedAt.Unix(), closedAt, t.RealizedPL,
	)
	return err
}

// RecordProfit stores the rate for the calendar day of day, replacing any earlier value.
func (r *SQLiteRecorder) RecordProfit(day time.Time, rate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO profit_history (day, rate, updated_at) VALUES (?,?,?)
		ON CONFLICT(day) DO UPDATE SET rate=excluded.rate, updated_at=excluded.updated_at`,
		day.Format("2006-01-02"), rate, time.Now().Unix(),
	)
	return err
}

// RecentProfits returns up to n most recent daily rates, oldest first.
func (r *SQLiteRecorder) RecentProfits(n int) ([]ProfitRecord, error) {
	rows, err := r.db.Query(`SELECT day, rate FROM
		(SELECT day, rate FROM profit_history ORDER BY day DESC LIMIT ?)
		ORDER BY day ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("query profits: %w", err)
	}
	defer rows.Close()

	var out []ProfitRecord
	for rows.Next() {
		var day string
		var rec ProfitRecord
		if err := rows.Scan(&day, &rec.Rate); err != nil {
			return nil, fmt.Errorf("scan profit: %w", err)
		}
		if rec.Day, err = time.Parse("2006-01-02", day); err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}

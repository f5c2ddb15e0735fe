// Package journal persists executed entries to SQLite for analysis and
// audit. The journal is write-mostly; reads serve ad-hoc inspection.
package journal

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"autotrader/internal/model"
	"autotrader/internal/position"
)

// Journal records accepted entry orders.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) the SQLite entry journal.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id     TEXT NOT NULL,
		symbol       TEXT NOT NULL,
		side         TEXT NOT NULL,
		qty          REAL NOT NULL,
		entry_price  REAL NOT NULL,
		take_profit  REAL NOT NULL,
		stop_loss    REAL NOT NULL,
		atr          REAL,
		decision_ms  INTEGER NOT NULL,
		entered_at   DATETIME NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_entries_symbol ON entries(symbol);
	CREATE INDEX IF NOT EXISTS idx_entries_entered_at ON entries(entered_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened entry journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// Entry is one executed entry with the exit levels active at order time.
type Entry struct {
	OrderID     string
	Symbol      string
	Side        model.Side
	Qty         float64
	EntryPrice  float64
	Levels      position.ExitLevels
	DecisionDur time.Duration
	EnteredAt   time.Time
}

// RecordEntry persists an executed entry. The ATR column is NULL when the
// fixed-percentage fallback produced the exit levels.
func (j *Journal) RecordEntry(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	atr := sql.NullFloat64{}
	if e.Levels.ATR.Ready {
		atr = sql.NullFloat64{Float64: e.Levels.ATR.Value, Valid: true}
	}

	_, err := j.db.Exec(
		`INSERT INTO entries (order_id, symbol, side, qty, entry_price, take_profit, stop_loss, atr, decision_ms, entered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OrderID,
		e.Symbol,
		string(e.Side),
		e.Qty,
		e.EntryPrice,
		e.Levels.TakeProfit,
		e.Levels.StopLoss,
		atr,
		e.DecisionDur.Milliseconds(),
		e.EnteredAt.UTC().Format(time.RFC3339),
	)
	return err
}

// EntryRecord is a row from the entries table.
type EntryRecord struct {
	ID         int64   `json:"id"`
	OrderID    string  `json:"order_id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Qty        float64 `json:"qty"`
	EntryPrice float64 `json:"entry_price"`
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
	ATR        *float64 `json:"atr,omitempty"`
	DecisionMS int64   `json:"decision_ms"`
	EnteredAt  string  `json:"entered_at"`
}

// RecentEntries returns the last N entries, newest first.
func (j *Journal) RecentEntries(limit int) ([]EntryRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, order_id, symbol, side, qty, entry_price, take_profit, stop_loss, atr, decision_ms, entered_at
		 FROM entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRecord
	for rows.Next() {
		var r EntryRecord
		var atr sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.OrderID, &r.Symbol, &r.Side, &r.Qty,
			&r.EntryPrice, &r.TakeProfit, &r.StopLoss, &atr, &r.DecisionMS, &r.EnteredAt); err != nil {
			continue
		}
		if atr.Valid {
			v := atr.Float64
			r.ATR = &v
		}
		out = append(out, r)
	}
	return out, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

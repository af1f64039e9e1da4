package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"TaseTracker/internal/logging"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists tracker events to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logging.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logging.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logging.NewSilent()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alert_triggers (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			alert_id    TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			exchange    TEXT,
			currency    TEXT,
			condition   TEXT,
			recurrence  TEXT,
			threshold   REAL,
			price       REAL,
			delivered   INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_triggers_ts ON alert_triggers(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_triggers_symbol ON alert_triggers(symbol)`,

		`CREATE TABLE IF NOT EXISTS valuations (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			recipient    TEXT,
			currency     TEXT,
			cost         TEXT,
			market_value TEXT,
			profit       TEXT,
			profit_pct   TEXT,
			positions    INTEGER,
			unpriced     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuations_ts ON valuations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS fetch_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			source    TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON fetch_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) stamp(t time.Time) int64 {
	if t.IsZero() {
		t = r.now()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordAlertTrigger(evt *AlertTriggerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := evt.Trigger
	_, err := r.db.Exec(`INSERT INTO alert_triggers
		(timestamp, alert_id, symbol, exchange, currency, condition, recurrence,
		 threshold, price, delivered, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		r.stamp(t.Time), t.Alert.ID, t.Alert.Symbol, t.Info.Exchange, t.Info.Currency,
		string(t.Alert.Condition), string(t.Alert.Recurrence),
		t.Alert.Threshold, t.Price, evt.Delivered, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordValuation(evt *ValuationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO valuations
		(timestamp, recipient, currency, cost, market_value, profit, profit_pct, positions, unpriced)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.stamp(evt.Time), evt.Recipient, evt.Currency,
		evt.Cost, evt.MarketValue, evt.Profit, evt.ProfitPct,
		evt.Positions, evt.Unpriced,
	)
	return err
}

func (r *SQLiteRecorder) RecordFetchFailure(evt *FetchFailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_failures (timestamp, symbol, source, error) VALUES (?,?,?,?)`,
		r.stamp(evt.Time), evt.Symbol, evt.Source, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

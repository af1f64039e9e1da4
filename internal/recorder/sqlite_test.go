package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"TaseTracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func countRows(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteRecorder_AlertTrigger(t *testing.T) {
	r := openTestRecorder(t)
	at := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

	err := r.RecordAlertTrigger(&AlertTriggerEvent{
		Trigger: model.AlertTrigger{
			Alert: model.Alert{ID: "a1", Symbol: "ABC.X", Threshold: 100,
				Condition: model.ConditionAbove, Recurrence: model.RecurrenceOneShot},
			Info:  model.DefaultMarkets.Classify("ABC.X"),
			Price: 101.5,
			Time:  at,
		},
		Delivered: false,
		Error:     "smtp down",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, r, "alert_triggers"))

	var (
		ts        int64
		symbol    string
		currency  string
		delivered bool
		errText   string
	)
	require.NoError(t, r.db.QueryRow(
		"SELECT timestamp, symbol, currency, delivered, error FROM alert_triggers").
		Scan(&ts, &symbol, &currency, &delivered, &errText))
	assert.Equal(t, at.Unix(), ts)
	assert.Equal(t, "ABC.X", symbol)
	assert.Equal(t, "USD", currency)
	assert.False(t, delivered)
	assert.Equal(t, "smtp down", errText)
}

func TestSQLiteRecorder_ValuationAndFailures(t *testing.T) {
	r := openTestRecorder(t)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, r.RecordValuation(&ValuationEvent{
		Recipient: "42", Currency: "ILS", Cost: "500", MarketValue: "600",
		Profit: "100", ProfitPct: "20", Positions: 1,
	}))
	require.NoError(t, r.RecordFetchFailure(&FetchFailureEvent{Symbol: "FAIL.TA", Source: "yahoo", Error: "timeout"}))
	require.NoError(t, r.RecordFetchFailure(&FetchFailureEvent{Symbol: "FAIL.TA", Source: "yahoo", Error: "timeout"}))

	assert.Equal(t, 1, countRows(t, r, "valuations"))
	assert.Equal(t, 2, countRows(t, r, "fetch_failures"))

	var mv string
	var ts int64
	require.NoError(t, r.db.QueryRow("SELECT timestamp, market_value FROM valuations").Scan(&ts, &mv))
	assert.Equal(t, "600", mv)
	assert.Equal(t, int64(1700000000), ts)
}

func TestSQLiteRecorder_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.RecordFetchFailure(&FetchFailureEvent{Symbol: "X"}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 1, countRows(t, r, "fetch_failures"))
}

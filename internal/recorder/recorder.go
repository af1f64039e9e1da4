// Package recorder journals tracker events. The journal is write-only: it is
// never read back to rebuild alerts or portfolios.
package recorder

import (
	"time"

	"TaseTracker/internal/model"
)

// AlertTriggerEvent is one fired alert and the outcome of its notification.
type AlertTriggerEvent struct {
	Trigger   model.AlertTrigger
	Delivered bool
	Error     string
}

// ValuationEvent is a portfolio snapshot of one session.
type ValuationEvent struct {
	Recipient   string
	Time        time.Time
	Currency    string
	Cost        string // decimal string
	MarketValue string
	Profit      string
	ProfitPct   string
	Positions   int
	Unpriced    int
}

// FetchFailureEvent records a quote request that could not be served.
type FetchFailureEvent struct {
	Symbol string
	Source string
	Error  string
	Time   time.Time
}

// Recorder persists tracker events for later analysis.
type Recorder interface {
	RecordAlertTrigger(evt *AlertTriggerEvent) error
	RecordValuation(evt *ValuationEvent) error
	RecordFetchFailure(evt *FetchFailureEvent) error
	Close() error
}

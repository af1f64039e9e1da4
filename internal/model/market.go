package model

import "time"

// Quote represents a single candlestick bar for a symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// QuoteSeries holds an ordered quote history together with the request
// parameters that produced it.
type QuoteSeries struct {
	Symbol    string    `json:"symbol"`
	Period    Period    `json:"period"`
	Interval  Interval  `json:"interval"`
	Bars      []Quote   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Last returns the most recent bar, false when the series is empty.
func (s *QuoteSeries) Last() (Quote, bool) {
	if s == nil || len(s.Bars) == 0 {
		return Quote{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close prices in chronological order.
func (s *QuoteSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Period is the look-back range of a quote request.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
)

// Interval is the bar width of a quote request.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval2m  Interval = "2m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
)

var validPeriods = map[Period]bool{
	Period1d: true, Period5d: true, Period1mo: true, Period3mo: true,
	Period6mo: true, Period1y: true, Period2y: true, Period5y: true,
}

var validIntervals = map[Interval]bool{
	Interval1m: true, Interval2m: true, Interval5m: true, Interval15m: true,
	Interval30m: true, Interval1h: true, Interval1d: true, Interval1wk: true,
	Interval1mo: true,
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool { return validPeriods[p] }

// Valid reports whether i is one of the supported intervals.
func (i Interval) Valid() bool { return validIntervals[i] }

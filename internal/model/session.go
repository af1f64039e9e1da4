package model

import "time"

// SessionState is the open/closed status of the exchange.
type SessionState string

const (
	SessionOpen   SessionState = "OPEN"
	SessionClosed SessionState = "CLOSED"
)

// ClosedReason explains a closed session.
type ClosedReason string

const (
	ReasonNone         ClosedReason = ""
	ReasonWeekend      ClosedReason = "weekend"
	ReasonHoliday      ClosedReason = "holiday"
	ReasonOutsideHours ClosedReason = "outside_hours"
)

// SessionStatus is the classifier output for one instant.
type SessionStatus struct {
	State     SessionState `json:"state"`
	Reason    ClosedReason `json:"reason,omitempty"`
	LocalTime time.Time    `json:"local_time"`
	// HolidayDataMissing is set when the calendar had no data for the year
	// and only weekday/hour rules were applied.
	HolidayDataMissing bool `json:"holiday_data_missing,omitempty"`
}

// Open reports whether trading is permitted.
func (s SessionStatus) Open() bool { return s.State == SessionOpen }

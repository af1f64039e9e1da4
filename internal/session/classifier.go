// Package session classifies whether the exchange is trading at an instant.
package session

import (
	"fmt"
	"time"

	"TaseTracker/internal/calendar"
	"TaseTracker/internal/model"
)

// Schedule is the fixed weekly trading window of the exchange. Open and
// Close are minutes since local midnight and both boundary minutes are
// inside the session.
type Schedule struct {
	Location *time.Location
	Open     int
	Close    int
	RestDays []time.Weekday
}

// DefaultSchedule returns the TASE window: Sunday to Thursday, 09:45-16:25
// Asia/Jerusalem.
func DefaultSchedule() Schedule {
	return Schedule{
		Location: MustLoadLocation("Asia/Jerusalem", 2),
		Open:     9*60 + 45,
		Close:    16*60 + 25,
		RestDays: []time.Weekday{time.Friday, time.Saturday},
	}
}

// Validate checks the window is well-formed.
func (s Schedule) Validate() error {
	if s.Location == nil {
		return fmt.Errorf("schedule location is nil")
	}
	if s.Open < 0 || s.Close >= 24*60 || s.Open > s.Close {
		return fmt.Errorf("schedule window %d-%d is invalid", s.Open, s.Close)
	}
	return nil
}

// MustLoadLocation loads a tz database zone, falling back to a fixed offset
// (in hours) when tzdata is unavailable.
func MustLoadLocation(name string, fallbackHours int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, fallbackHours*60*60)
	}
	return loc
}

// Classifier decides Open/Closed for instants. It holds no mutable state.
type Classifier struct {
	schedule Schedule
	calendar calendar.Calendar
	now      calendar.Clock
}

// NewClassifier creates a classifier. cal may be nil, in which case only
// weekday and hour rules apply.
func NewClassifier(schedule Schedule, cal calendar.Calendar, clock calendar.Clock) (*Classifier, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = calendar.SystemClock
	}
	return &Classifier{schedule: schedule, calendar: cal, now: clock}, nil
}

// Location returns the exchange time zone.
func (c *Classifier) Location() *time.Location { return c.schedule.Location }

// Now classifies the current instant of the injected clock.
func (c *Classifier) Now() model.SessionStatus {
	return c.Classify(c.now())
}

// Classify returns the session state at instant. Comparison is at minute
// granularity: seconds are ignored, so the whole close minute is open.
func (c *Classifier) Classify(instant time.Time) model.SessionStatus {
	local := instant.In(c.schedule.Location)
	status := model.SessionStatus{State: model.SessionClosed, LocalTime: local}

	for _, d := range c.schedule.RestDays {
		if local.Weekday() == d {
			status.Reason = model.ReasonWeekend
			return status
		}
	}

	if c.calendar == nil {
		status.HolidayDataMissing = true
	} else {
		holiday, err := c.calendar.IsHoliday(local)
		switch {
		case err != nil:
			// calendar.ErrNoData and lookup failures both fall back to
			// weekday/hour rules.
			status.HolidayDataMissing = true
		case holiday:
			status.Reason = model.ReasonHoliday
			return status
		}
	}

	minute := local.Hour()*60 + local.Minute()
	if minute < c.schedule.Open || minute > c.schedule.Close {
		status.Reason = model.ReasonOutsideHours
		return status
	}

	status.State = model.SessionOpen
	return status
}

// Package calendar provides the clock and the year-scoped holiday data used
// to decide exchange sessions.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoData is returned when the calendar holds nothing for the queried year.
var ErrNoData = errors.New("no holiday data for year")

// Calendar answers whether a local date is an exchange holiday.
type Calendar interface {
	IsHoliday(date time.Time) (bool, error)
}

// Clock returns the current instant.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{y, m, d}
}

// Static is an in-memory holiday set keyed by year.
type Static struct {
	years map[int]map[dateKey]bool
}

// NewStatic parses YYYY-MM-DD entries per year. Entries whose year does not
// match their key are rejected.
func NewStatic(holidays map[int][]string) (*Static, error) {
	s := &Static{years: make(map[int]map[dateKey]bool, len(holidays))}
	for year, dates := range holidays {
		set := make(map[dateKey]bool, len(dates))
		for _, raw := range dates {
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("holiday %q: %w", raw, err)
			}
			if d.Year() != year {
				return nil, fmt.Errorf("holiday %q listed under year %d", raw, year)
			}
			set[keyOf(d)] = true
		}
		s.years[year] = set
	}
	return s, nil
}

// IsHoliday reports whether the calendar date of t (in t's own location) is
// a holiday. ErrNoData is returned when the year is not covered.
func (s *Static) IsHoliday(date time.Time) (bool, error) {
	set, ok := s.years[date.Year()]
	if !ok {
		return false, fmt.Errorf("%d: %w", date.Year(), ErrNoData)
	}
	return set[keyOf(date)], nil
}

// Years lists the covered years in ascending order.
func (s *Static) Years() []int {
	years := make([]int, 0, len(s.years))
	for y := range s.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

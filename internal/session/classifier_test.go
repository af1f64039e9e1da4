package session

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"TaseTracker/internal/calendar"
	"TaseTracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jerusalem = MustLoadLocation("Asia/Jerusalem", 2)

func at(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, jerusalem)
}

func newTestClassifier(t *testing.T, cal calendar.Calendar) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultSchedule(), cal, nil)
	require.NoError(t, err)
	return c
}

func holidays2024(t *testing.T) calendar.Calendar {
	t.Helper()
	cal, err := calendar.NewStatic(map[int][]string{2024: {"2024-10-13", "2024-04-22"}})
	require.NoError(t, err)
	return cal
}

func TestClassify_OpenInsideWindow(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))
	// Sunday 2024-10-06 through Thursday 2024-10-10.
	for day := 6; day <= 10; day++ {
		for _, hm := range [][2]int{{9, 45}, {10, 0}, {12, 30}, {16, 0}, {16, 25}} {
			st := c.Classify(at(2024, 10, day, hm[0], hm[1], 0))
			assert.True(t, st.Open(), "2024-10-%02d %02d:%02d should be open", day, hm[0], hm[1])
			assert.Equal(t, model.ReasonNone, st.Reason)
		}
	}
}

func TestClassify_RestDaysClosedAllDay(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))
	for _, day := range []int{11, 12} { // Friday, Saturday
		for hour := 0; hour < 24; hour++ {
			st := c.Classify(at(2024, 10, day, hour, 0, 0))
			assert.False(t, st.Open())
			assert.Equal(t, model.ReasonWeekend, st.Reason)
		}
	}
}

func TestClassify_CloseBoundaryMinuteGranularity(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))

	assert.True(t, c.Classify(at(2024, 10, 9, 16, 25, 0)).Open())
	assert.True(t, c.Classify(at(2024, 10, 9, 16, 25, 59)).Open())

	st := c.Classify(at(2024, 10, 9, 16, 26, 0))
	assert.False(t, st.Open())
	assert.Equal(t, model.ReasonOutsideHours, st.Reason)
}

func TestClassify_OpenBoundary(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))

	st := c.Classify(at(2024, 10, 9, 9, 44, 59))
	assert.False(t, st.Open())
	assert.Equal(t, model.ReasonOutsideHours, st.Reason)
	assert.True(t, c.Classify(at(2024, 10, 9, 9, 45, 0)).Open())
}

func TestClassify_Holiday(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))

	st := c.Classify(at(2024, 10, 13, 12, 0, 0)) // Sunday, Yom Kippur
	assert.False(t, st.Open())
	assert.Equal(t, model.ReasonHoliday, st.Reason)
	assert.False(t, st.HolidayDataMissing)
}

func TestClassify_WeekendTakesPrecedenceOverHoliday(t *testing.T) {
	cal, err := calendar.NewStatic(map[int][]string{2024: {"2024-10-19"}}) // Saturday
	require.NoError(t, err)
	c := newTestClassifier(t, cal)

	assert.Equal(t, model.ReasonWeekend, c.Classify(at(2024, 10, 19, 12, 0, 0)).Reason)
}

func TestClassify_FailsOpenWithoutYearData(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))

	st := c.Classify(at(2026, 10, 13, 12, 0, 0)) // Tuesday, no 2026 data
	assert.True(t, st.Open())
	assert.True(t, st.HolidayDataMissing)
}

type brokenCalendar struct{}

func (brokenCalendar) IsHoliday(time.Time) (bool, error) { return false, errors.New("boom") }

func TestClassify_CalendarErrorDegrades(t *testing.T) {
	c := newTestClassifier(t, brokenCalendar{})
	st := c.Classify(at(2024, 10, 9, 12, 0, 0))
	assert.True(t, st.Open())
	assert.True(t, st.HolidayDataMissing)
}

func TestClassify_NilCalendar(t *testing.T) {
	c := newTestClassifier(t, nil)
	st := c.Classify(at(2024, 10, 13, 12, 0, 0))
	assert.True(t, st.Open())
	assert.True(t, st.HolidayDataMissing)
}

func TestClassify_ConvertsFromOtherZones(t *testing.T) {
	c := newTestClassifier(t, holidays2024(t))

	// 14:00 UTC on Wednesday 2024-10-09 is 17:00 in Jerusalem (IDT, UTC+3).
	st := c.Classify(time.Date(2024, 10, 9, 14, 0, 0, 0, time.UTC))
	assert.False(t, st.Open())
	assert.Equal(t, model.ReasonOutsideHours, st.Reason)
	assert.Equal(t, 17, st.LocalTime.Hour())

	// 07:00 UTC is 10:00 local.
	assert.True(t, c.Classify(time.Date(2024, 10, 9, 7, 0, 0, 0, time.UTC)).Open())
}

func TestNow_UsesInjectedClock(t *testing.T) {
	fixed := at(2024, 10, 11, 12, 0, 0)
	c, err := NewClassifier(DefaultSchedule(), nil, func() time.Time { return fixed })
	require.NoError(t, err)
	assert.Equal(t, model.ReasonWeekend, c.Now().Reason)
}

func TestNewClassifier_RejectsBadWindow(t *testing.T) {
	s := DefaultSchedule()
	s.Open, s.Close = 17*60, 9*60
	_, err := NewClassifier(s, nil, nil)
	assert.Error(t, err)
}

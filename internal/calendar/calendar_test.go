package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_IsHoliday(t *testing.T) {
	cal, err := NewStatic(map[int][]string{2024: {"2024-10-13", "2024-04-22"}})
	require.NoError(t, err)

	yes, err := cal.IsHoliday(time.Date(2024, 10, 13, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := cal.IsHoliday(time.Date(2024, 10, 14, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, no)
}

func TestStatic_UsesDateInGivenLocation(t *testing.T) {
	cal, err := NewStatic(map[int][]string{2024: {"2024-10-13"}})
	require.NoError(t, err)

	// 22:30 UTC on the 12th is already the 13th in UTC+3.
	loc := time.FixedZone("IDT", 3*60*60)
	instant := time.Date(2024, 10, 12, 22, 30, 0, 0, time.UTC).In(loc)
	yes, err := cal.IsHoliday(instant)
	require.NoError(t, err)
	assert.True(t, yes)
}

func TestStatic_NoDataForYear(t *testing.T) {
	cal, err := NewStatic(map[int][]string{2024: {"2024-10-13"}})
	require.NoError(t, err)

	_, err = cal.IsHoliday(time.Date(2026, 10, 13, 11, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestNewStatic_Rejects(t *testing.T) {
	_, err := NewStatic(map[int][]string{2024: {"13/10/2024"}})
	assert.Error(t, err)

	_, err = NewStatic(map[int][]string{2025: {"2024-10-13"}})
	assert.Error(t, err)
}

func TestStatic_Years(t *testing.T) {
	cal, err := NewStatic(map[int][]string{2025: nil, 2024: nil})
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, cal.Years())
}

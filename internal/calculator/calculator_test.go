package calculator

import (
	"testing"
	"time"

	"TaseTracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes ...float64) []model.Quote {
	bars := make([]model.Quote, len(closes))
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.Quote{Time: start.AddDate(0, 0, i), Close: c, High: c + 1, Low: c - 1}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	v, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, v, 1e-9)

	_, err = CalculateSMA([]float64{1}, 2)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestSMASeries(t *testing.T) {
	values, valid, err := SMASeries([]float64{2, 4, 6, 8}, 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, true}, valid)
	assert.InDelta(t, 4.0, values[2], 1e-9)
	assert.InDelta(t, 6.0, values[3], 1e-9)
}

func TestCalculateMA20_NeedsTwentyBars(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10
	}
	ma, err := CalculateMA20(barsFromCloses(closes...))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ma, 1e-9)

	_, err = CalculateMA50(barsFromCloses(closes...))
	assert.Error(t, err)
}

func TestCalculateCloseRange(t *testing.T) {
	low, high, err := CalculateCloseRange(barsFromCloses(5, 3, 9, 7))
	require.NoError(t, err)
	assert.Equal(t, 3.0, low)
	assert.Equal(t, 9.0, high)

	_, _, err = CalculateCloseRange(nil)
	assert.Error(t, err)
}

func TestCalculateChange_ZeroPrevious(t *testing.T) {
	change, pct := CalculateChange(10, 0)
	assert.Equal(t, 10.0, change)
	assert.Equal(t, 0.0, pct)

	change, pct = CalculateChange(110, 100)
	assert.InDelta(t, 10.0, change, 1e-9)
	assert.InDelta(t, 10.0, pct, 1e-9)
}

func TestCalculateVariation(t *testing.T) {
	pct, ok := CalculateVariation(barsFromCloses(100, 90, 125))
	assert.True(t, ok)
	assert.InDelta(t, 25.0, pct, 1e-9)

	_, ok = CalculateVariation(barsFromCloses(100))
	assert.False(t, ok)
}

func TestStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	pop, err := PopulationStdDev(values)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pop, 1e-9)

	sample, err := SampleStdDev(values)
	require.NoError(t, err)
	assert.InDelta(t, 2.138089935, sample, 1e-6)

	single, err := SampleStdDev([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, single)

	_, err = Mean(nil)
	assert.Error(t, err)
}

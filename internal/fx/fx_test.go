package fx

import (
	"math"
	"testing"

	"TaseTracker/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RejectsNonPositive(t *testing.T) {
	for _, rate := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err := NewManager("ILS", "USD", rate)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	}
}

func TestManager_SetRejectsNonFinite(t *testing.T) {
	m, err := NewManager("ILS", "USD", 3.7)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Set(math.Inf(1)), model.ErrInvalidInput)
	assert.ErrorIs(t, m.Set(math.NaN()), model.ErrInvalidInput)
	assert.Equal(t, "3.7", m.Rate().String())
}

func TestConvert(t *testing.T) {
	m, err := NewManager("ILS", "USD", 3.7)
	require.NoError(t, err)

	got, err := Convert(m, model.M(100, "USD"), "ILS")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(370)), got.Amount.String())
	assert.Equal(t, "ILS", got.Currency)

	got, err = Convert(m, model.M(370, "ILS"), "USD")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(100)), got.Amount.String())

	same, err := Convert(m, model.M(5, "ILS"), "ILS")
	require.NoError(t, err)
	assert.Equal(t, model.M(5, "ILS"), same)

	_, err = Convert(m, model.M(5, "EUR"), "ILS")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestManager_Set(t *testing.T) {
	m, err := NewManager("ILS", "USD", 3.7)
	require.NoError(t, err)
	require.NoError(t, m.Set(4))
	assert.True(t, m.Rate().Equal(decimal.NewFromInt(4)))
	assert.False(t, m.UpdatedAt().IsZero())

	assert.Error(t, m.Set(0))
	assert.True(t, m.Rate().Equal(decimal.NewFromInt(4)), "failed Set keeps previous rate")
}

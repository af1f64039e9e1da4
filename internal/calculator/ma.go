package calculator

import (
	"errors"

	"TaseTracker/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling simple moving average aligned with prices.
// Positions before the first full window are zero and reported invalid.
func SMASeries(prices []float64, period int) (values []float64, valid []bool, err error) {
	if period <= 0 {
		return nil, nil, errors.New("period must be positive")
	}
	values = make([]float64, len(prices))
	valid = make([]bool, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			values[i] = sum / float64(period)
			valid[i] = true
		}
	}
	return values, valid, nil
}

// CalculateMA20 returns the 20-bar simple moving average.
func CalculateMA20(bars []model.Quote) (float64, error) {
	return CalculateSMA(extractCloses(bars), 20)
}

// CalculateMA50 returns the 50-bar simple moving average.
func CalculateMA50(bars []model.Quote) (float64, error) {
	return CalculateSMA(extractCloses(bars), 50)
}

func extractCloses(bars []model.Quote) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

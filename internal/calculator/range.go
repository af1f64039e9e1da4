package calculator

import (
	"errors"
	"math"

	"TaseTracker/internal/model"
)

// CalculateCloseRange scans every bar and returns the lowest and highest close.
func CalculateCloseRange(bars []model.Quote) (low, high float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.Close > high {
			high = b.Close
		}
		if b.Close < low {
			low = b.Close
		}
	}
	return low, high, nil
}

// CalculateChange returns the absolute and percentage move from previous to
// current. The percentage is zero when previous is zero.
func CalculateChange(current, previous float64) (change, pct float64) {
	change = current - previous
	if previous == 0 {
		return change, 0
	}
	return change, change / previous * 100
}

// CalculateVariation returns the percentage move from the first to the last
// close. ok is false with fewer than two bars or a zero first close.
func CalculateVariation(bars []model.Quote) (pct float64, ok bool) {
	if len(bars) < 2 || bars[0].Close == 0 {
		return 0, false
	}
	return (bars[len(bars)-1].Close/bars[0].Close - 1) * 100, true
}

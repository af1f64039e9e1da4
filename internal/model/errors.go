package model

import (
	"errors"
	"math"
)

var (
	// ErrDataUnavailable means a quote fetch failed or returned no bars.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidInput means a user-supplied value was rejected at entry.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDeliveryFailure means the notifier could not deliver a message.
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrConfigurationMissing means optional reference data is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
)

// PositiveFinite reports whether v is a usable share count, price or rate:
// greater than zero and neither NaN nor infinite.
func PositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

package collector

import (
	"context"

	"TaseTracker/internal/model"
)

// Fetcher defines the interface for fetching quote history.
// Implementations return bars in chronological order with timestamps in the
// display location, or an error wrapping model.ErrDataUnavailable.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, period model.Period, interval model.Interval) (*model.QuoteSeries, error)
	Name() string
}

func validateRequest(symbol string, period model.Period, interval model.Interval) error {
	if symbol == "" {
		return model.ErrInvalidInput
	}
	if !period.Valid() {
		return model.ErrInvalidInput
	}
	if !interval.Valid() {
		return model.ErrInvalidInput
	}
	return nil
}

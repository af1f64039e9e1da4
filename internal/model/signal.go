package model

import "time"

// Trend is the direction classification of a forecast.
type Trend string

const (
	TrendStrongUp   Trend = "STRONG_UP"
	TrendUp         Trend = "UP"
	TrendStable     Trend = "STABLE"
	TrendDown       Trend = "DOWN"
	TrendStrongDown Trend = "STRONG_DOWN"
)

// ForecastPoint is one projected close.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Upper     float64   `json:"upper"`
	Lower     float64   `json:"lower"`
	ChangePct float64   `json:"change_pct"`
}

// Forecast is the output of the polynomial trend fit. Coefficients are
// ordered from the constant term up and apply to the day offset divided by
// Scale.
type Forecast struct {
	Symbol       string          `json:"symbol"`
	Degree       int             `json:"degree"`
	Coefficients []float64       `json:"coefficients"`
	Scale        float64         `json:"scale"`
	Points       []ForecastPoint `json:"points"`
	RMSE         float64         `json:"rmse"`
	MAE          float64         `json:"mae"`
	R2           float64         `json:"r2"`
	ResidualStd  float64         `json:"residual_std"`
	LastPrice    float64         `json:"last_price"`
	Trend        Trend           `json:"trend"`
}

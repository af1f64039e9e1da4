package model

// QuoteStats holds the headline figures and summary statistics derived from
// a quote series.
type QuoteStats struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_pct"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Volume        float64 `json:"volume"`
	MA20          float64 `json:"ma20"`
	MA50          float64 `json:"ma50"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	VariationPct  float64 `json:"variation_pct"`
	// HasVariation is false when fewer than two bars were available.
	HasVariation bool `json:"has_variation"`
}

// Package forecast projects closing prices with a least-squares polynomial
// trend over calendar-day offsets.
package forecast

import (
	"fmt"
	"math"

	"TaseTracker/internal/calculator"
	"TaseTracker/internal/model"

	"gonum.org/v1/gonum/mat"
)

const (
	MinDegree = 1
	MaxDegree = 5
	MinDays   = 1
	MaxDays   = 30

	DefaultDegree = 2
	DefaultDays   = 7
)

// Options selects the polynomial degree and projection horizon.
type Options struct {
	Days   int
	Degree int
}

// DefaultOptions returns a seven day, quadratic projection.
func DefaultOptions() Options {
	return Options{Days: DefaultDays, Degree: DefaultDegree}
}

// Validate checks the horizon and degree ranges.
func (o Options) Validate() error {
	if o.Degree < MinDegree || o.Degree > MaxDegree {
		return fmt.Errorf("degree %d outside %d-%d: %w", o.Degree, MinDegree, MaxDegree, model.ErrInvalidInput)
	}
	if o.Days < MinDays || o.Days > MaxDays {
		return fmt.Errorf("days %d outside %d-%d: %w", o.Days, MinDays, MaxDays, model.ErrInvalidInput)
	}
	return nil
}

// Fit regresses the closes of series on their day offset from the first bar
// and projects opts.Days calendar days past the last bar.
func Fit(series *model.QuoteSeries, opts Options) (*model.Forecast, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("forecast: empty series: %w", model.ErrDataUnavailable)
	}
	bars := series.Bars
	if len(bars) < opts.Degree+1 {
		return nil, fmt.Errorf("forecast degree %d needs %d bars, have %d: %w",
			opts.Degree, opts.Degree+1, len(bars), model.ErrDataUnavailable)
	}

	origin := bars[0].Time
	days := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		days[i] = math.Floor(b.Time.Sub(origin).Hours() / 24)
		closes[i] = b.Close
	}
	scale := days[len(days)-1]
	if scale <= 0 {
		return nil, fmt.Errorf("forecast: series spans less than a day: %w", model.ErrDataUnavailable)
	}

	coef, err := leastSquares(days, closes, opts.Degree, scale)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, len(bars))
	var sse, sae float64
	for i := range days {
		r := closes[i] - evaluate(coef, days[i]/scale)
		residuals[i] = r
		sse += r * r
		sae += math.Abs(r)
	}
	n := float64(len(bars))
	residualStd, _ := calculator.PopulationStdDev(residuals)

	fc := &model.Forecast{
		Symbol:       series.Symbol,
		Degree:       opts.Degree,
		Coefficients: coef,
		Scale:        scale,
		RMSE:         math.Sqrt(sse / n),
		MAE:          sae / n,
		R2:           rSquared(closes, sse),
		ResidualStd:  residualStd,
		LastPrice:    last.Close,
	}

	lastDay := days[len(days)-1]
	for i := 1; i <= opts.Days; i++ {
		p := evaluate(coef, (lastDay+float64(i))/scale)
		pt := model.ForecastPoint{
			Date:  last.Time.AddDate(0, 0, i),
			Price: p,
			Upper: p + 2*residualStd,
			Lower: p - 2*residualStd,
		}
		if last.Close > 0 {
			pt.ChangePct = (p/last.Close - 1) * 100
		}
		fc.Points = append(fc.Points, pt)
	}
	fc.Trend = ClassifyTrend(last.Close, fc.Points[len(fc.Points)-1].Price)
	return fc, nil
}

// ClassifyTrend compares the final projection with the current price. A move
// beyond 5% in either direction is strong.
func ClassifyTrend(current, projected float64) model.Trend {
	switch {
	case projected > current*1.05:
		return model.TrendStrongUp
	case projected > current:
		return model.TrendUp
	case projected < current*0.95:
		return model.TrendStrongDown
	case projected < current:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

func leastSquares(x, y []float64, degree int, scale float64) ([]float64, error) {
	rows, cols := len(x), degree+1
	a := mat.NewDense(rows, cols, nil)
	for i, xi := range x {
		u := xi / scale
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= u
		}
	}
	b := mat.NewVecDense(rows, y)

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("polynomial fit: %w", err)
	}

	coef := make([]float64, cols)
	for j := range coef {
		coef[j] = sol.AtVec(j)
	}
	return coef, nil
}

func evaluate(coef []float64, u float64) float64 {
	v := 0.0
	for j := len(coef) - 1; j >= 0; j-- {
		v = v*u + coef[j]
	}
	return v
}

func rSquared(y []float64, sse float64) float64 {
	mean, err := calculator.Mean(y)
	if err != nil {
		return 0
	}
	sst := 0.0
	for _, v := range y {
		sst += (v - mean) * (v - mean)
	}
	if sst == 0 {
		if sse == 0 {
			return 1
		}
		return 0
	}
	return 1 - sse/sst
}

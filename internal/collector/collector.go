package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TaseTracker/internal/calculator"
	"TaseTracker/internal/logging"
	"TaseTracker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Prices map[string]float64
	Series map[string][]model.Quote
	Errors map[string]error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, symbol string, period model.Period, interval model.Interval) (*model.QuoteSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if err := validateRequest(symbol, period, interval); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Series[symbol]; ok {
		if len(bars) == 0 {
			return nil, fmt.Errorf("mock %s: %w", symbol, model.ErrDataUnavailable)
		}
		return &model.QuoteSeries{Symbol: symbol, Period: period, Interval: interval, Bars: bars, FetchedAt: time.Now()}, nil
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, model.ErrDataUnavailable)
	}
	return &model.QuoteSeries{
		Symbol: symbol, Period: period, Interval: interval,
		Bars:      generateMockBars(symbol, price, 60),
		FetchedAt: time.Now(),
	}, nil
}

func generateMockBars(symbol string, basePrice float64, count int) []model.Quote {
	bars := make([]model.Quote, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-(count-1))*0.001)
		bars[i] = model.Quote{
			Symbol: symbol,
			Time:   time.Now().AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector orchestrates quote fetching and statistics computation.
type Collector struct {
	Fetcher Fetcher
	log     *logging.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log *logging.Logger) *Collector {
	if log == nil {
		log = logging.NewSilent()
	}
	return &Collector{Fetcher: fetcher, log: log}
}

// Collect fetches a quote history and computes its statistics.
func (c *Collector) Collect(ctx context.Context, symbol string, period model.Period, interval model.Interval) (*model.QuoteSeries, *model.QuoteStats, error) {
	series, err := c.Fetcher.Fetch(ctx, symbol, period, interval)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return series, c.Stats(series), nil
}

// Stats computes headline figures for a non-empty series. Indicators that
// lack data fall back to the current price, as a placeholder.
func (c *Collector) Stats(series *model.QuoteSeries) *model.QuoteStats {
	last, ok := series.Last()
	if !ok {
		return &model.QuoteStats{Symbol: series.Symbol}
	}
	bars := series.Bars
	st := &model.QuoteStats{
		Symbol:       series.Symbol,
		CurrentPrice: last.Close,
		DayHigh:      last.High,
		DayLow:       last.Low,
		Volume:       last.Volume,
	}

	st.PreviousClose = last.Close
	if len(bars) > 1 {
		st.PreviousClose = bars[len(bars)-2].Close
	}
	st.Change, st.ChangePct = calculator.CalculateChange(st.CurrentPrice, st.PreviousClose)

	// MA20
	if ma, err := calculator.CalculateMA20(bars); err != nil {
		c.log.Debug().Err(err).Str("symbol", series.Symbol).Msg("MA20 unavailable, using current price")
		st.MA20 = last.Close
	} else {
		st.MA20 = ma
	}

	// MA50
	if ma, err := calculator.CalculateMA50(bars); err != nil {
		c.log.Debug().Err(err).Str("symbol", series.Symbol).Msg("MA50 unavailable, using current price")
		st.MA50 = last.Close
	} else {
		st.MA50 = ma
	}

	closes := series.Closes()
	if mean, err := calculator.Mean(closes); err == nil {
		st.Mean = mean
	}
	if std, err := calculator.SampleStdDev(closes); err == nil {
		st.StdDev = std
	}
	if low, high, err := calculator.CalculateCloseRange(bars); err != nil {
		c.log.Warn().Err(err).Str("symbol", series.Symbol).Msg("close range calculation failed")
		st.Min, st.Max = last.Close, last.Close
	} else {
		st.Min, st.Max = low, high
	}
	st.VariationPct, st.HasVariation = calculator.CalculateVariation(bars)

	return st
}

// LastPrice returns the latest close for symbol.
func (c *Collector) LastPrice(ctx context.Context, symbol string) (float64, error) {
	series, err := c.Fetcher.Fetch(ctx, symbol, model.Period1d, model.Interval1d)
	if err != nil {
		return 0, fmt.Errorf("fetch current price %s: %w", symbol, err)
	}
	last, ok := series.Last()
	if !ok || !model.PositiveFinite(last.Close) {
		return 0, fmt.Errorf("no price for %s: %w", symbol, model.ErrDataUnavailable)
	}
	return last.Close, nil
}

// LastPrices fetches the latest close for every symbol. A failing symbol is
// reported in errs and never aborts the others.
func (c *Collector) LastPrices(ctx context.Context, symbols []string) (prices map[string]float64, errs map[string]error) {
	prices = make(map[string]float64, len(symbols))
	errs = make(map[string]error)
	for _, sym := range symbols {
		p, err := c.LastPrice(ctx, sym)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", sym).Msg("price unavailable")
			errs[sym] = err
			continue
		}
		prices[sym] = p
	}
	return prices, errs
}

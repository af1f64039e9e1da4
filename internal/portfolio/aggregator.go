package portfolio

import (
	"context"
	"fmt"
	"time"

	"TaseTracker/internal/fx"
	"TaseTracker/internal/model"

	"github.com/shopspring/decimal"
)

// Totals is a cost/value/profit triple in one currency.
type Totals struct {
	Cost        model.Money     `json:"cost"`
	MarketValue model.Money     `json:"market_value"`
	Profit      model.Money     `json:"profit"`
	ProfitPct   decimal.Decimal `json:"profit_pct"`
}

func zeroTotals(currency string) Totals {
	return Totals{
		Cost:        model.Zero(currency),
		MarketValue: model.Zero(currency),
		Profit:      model.Zero(currency),
	}
}

func (t *Totals) add(o Totals) error {
	var err error
	if t.Cost, err = t.Cost.Add(o.Cost); err != nil {
		return err
	}
	if t.MarketValue, err = t.MarketValue.Add(o.MarketValue); err != nil {
		return err
	}
	if t.Profit, err = t.Profit.Add(o.Profit); err != nil {
		return err
	}
	t.ProfitPct = model.Percent(t.Profit.Amount, t.Cost.Amount)
	return nil
}

// LotValue is one valued purchase lot.
type LotValue struct {
	Position model.Position `json:"position"`
	Totals
}

// Holding is the rollup of every lot of one symbol.
type Holding struct {
	Info   model.SymbolInfo `json:"info"`
	Shares decimal.Decimal  `json:"shares"`
	Price  float64          `json:"price"`
	Lots   []LotValue       `json:"lots"`
	Totals
	// Unpriced holdings have no usable quote; their figures are zero and
	// they are excluded from every total.
	Unpriced bool `json:"unpriced"`
}

// Snapshot is a full portfolio valuation.
type Snapshot struct {
	Time     time.Time `json:"time"`
	Holdings []Holding `json:"holdings"`
	// Buckets holds per-currency totals keyed by currency code.
	Buckets           map[string]Totals `json:"buckets"`
	Total             Totals            `json:"total"`
	ReportingCurrency string            `json:"reporting_currency"`
	Rate              decimal.Decimal   `json:"rate"`
	Unpriced          []string          `json:"unpriced,omitempty"`
}

// PriceSource yields the latest price of a symbol.
type PriceSource interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// Aggregator values books against quotes.
type Aggregator struct {
	markets   model.Markets
	rates     fx.Provider
	reporting string
	now       func() time.Time
}

// NewAggregator creates an aggregator reporting grand totals in reporting,
// which must be one of the two market currencies.
func NewAggregator(markets model.Markets, rates fx.Provider, reporting string) (*Aggregator, error) {
	if rates == nil {
		return nil, fmt.Errorf("fx provider: %w", model.ErrConfigurationMissing)
	}
	if reporting == "" {
		reporting = markets.LocalCurrency
	}
	if reporting != markets.LocalCurrency && reporting != markets.ForeignCurrency {
		return nil, fmt.Errorf("reporting currency %q: %w", reporting, model.ErrInvalidInput)
	}
	return &Aggregator{markets: markets, rates: rates, reporting: reporting, now: time.Now}, nil
}

// ReportingCurrency is the currency of Snapshot.Total.
func (a *Aggregator) ReportingCurrency() string { return a.reporting }

// Aggregate values book against quotes. A symbol without a positive, finite
// quote is flagged Unpriced. The result is a pure function of its inputs and the rate.
func (a *Aggregator) Aggregate(book *Book, quotes map[string]float64) (Snapshot, error) {
	snap := Snapshot{
		Time:              a.now(),
		Buckets:           make(map[string]Totals),
		Total:             zeroTotals(a.reporting),
		ReportingCurrency: a.reporting,
		Rate:              a.rates.Rate(),
	}

	for _, sym := range book.Symbols() {
		info := a.markets.Classify(sym)
		price, ok := quotes[sym]
		h := Holding{Info: info, Price: price, Totals: zeroTotals(info.Currency)}
		if !ok || !model.PositiveFinite(price) {
			h.Unpriced = true
			h.Price = 0
		}

		for _, lot := range book.Lots(sym) {
			h.Shares = h.Shares.Add(decimal.NewFromFloat(lot.Shares))
			if h.Unpriced {
				h.Lots = append(h.Lots, LotValue{Position: lot, Totals: zeroTotals(info.Currency)})
				continue
			}
			lv := valueLot(lot, price, info.Currency)
			h.Lots = append(h.Lots, lv)
			if err := h.Totals.add(lv.Totals); err != nil {
				return Snapshot{}, err
			}
		}

		snap.Holdings = append(snap.Holdings, h)
		if h.Unpriced {
			snap.Unpriced = append(snap.Unpriced, sym)
			continue
		}

		bucket, ok := snap.Buckets[info.Currency]
		if !ok {
			bucket = zeroTotals(info.Currency)
		}
		if err := bucket.add(h.Totals); err != nil {
			return Snapshot{}, err
		}
		snap.Buckets[info.Currency] = bucket
	}

	for _, cur := range []string{a.markets.LocalCurrency, a.markets.ForeignCurrency} {
		bucket, ok := snap.Buckets[cur]
		if !ok {
			continue
		}
		converted, err := a.convert(bucket)
		if err != nil {
			return Snapshot{}, err
		}
		if err := snap.Total.add(converted); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// Value fetches the latest price of every held symbol and aggregates. Fetch
// failures mark the symbol Unpriced and are returned keyed by symbol.
func (a *Aggregator) Value(ctx context.Context, book *Book, src PriceSource) (Snapshot, map[string]error, error) {
	quotes := make(map[string]float64)
	failures := make(map[string]error)
	for _, sym := range book.Symbols() {
		price, err := src.LastPrice(ctx, sym)
		if err != nil {
			failures[sym] = err
			continue
		}
		quotes[sym] = price
	}
	snap, err := a.Aggregate(book, quotes)
	return snap, failures, err
}

func (a *Aggregator) convert(t Totals) (Totals, error) {
	var out Totals
	var err error
	if out.Cost, err = fx.Convert(a.rates, t.Cost, a.reporting); err != nil {
		return Totals{}, err
	}
	if out.MarketValue, err = fx.Convert(a.rates, t.MarketValue, a.reporting); err != nil {
		return Totals{}, err
	}
	if out.Profit, err = fx.Convert(a.rates, t.Profit, a.reporting); err != nil {
		return Totals{}, err
	}
	out.ProfitPct = model.Percent(out.Profit.Amount, out.Cost.Amount)
	return out, nil
}

func valueLot(lot model.Position, price float64, currency string) LotValue {
	shares := decimal.NewFromFloat(lot.Shares)
	cost := shares.Mul(decimal.NewFromFloat(lot.BuyPrice))
	mv := shares.Mul(decimal.NewFromFloat(price))
	profit := mv.Sub(cost)
	return LotValue{
		Position: lot,
		Totals: Totals{
			Cost:        model.Money{Amount: cost, Currency: currency},
			MarketValue: model.Money{Amount: mv, Currency: currency},
			Profit:      model.Money{Amount: profit, Currency: currency},
			ProfitPct:   model.Percent(profit, cost),
		},
	}
}

package model

import "strings"

// Bucket groups symbols by the currency implied by their market.
type Bucket string

const (
	BucketLocal   Bucket = "local"
	BucketForeign Bucket = "foreign"
)

// SymbolInfo is the explicit classification of a ticker. It is computed once
// and carried alongside every computation that needs the market or currency.
type SymbolInfo struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Bucket   Bucket `json:"bucket"`
}

// Local reports whether the symbol trades on the home exchange.
func (s SymbolInfo) Local() bool { return s.Bucket == BucketLocal }

// Markets maps the market suffix to the two exchange/currency buckets.
type Markets struct {
	Suffix          string `yaml:"suffix"`
	LocalExchange   string `yaml:"local_exchange"`
	LocalCurrency   string `yaml:"local_currency"`
	ForeignExchange string `yaml:"foreign_exchange"`
	ForeignCurrency string `yaml:"foreign_currency"`
}

// DefaultMarkets is the Tel Aviv layout: ".TA" tickers are shekel-priced,
// everything else is treated as a dollar-priced US/global listing.
var DefaultMarkets = Markets{
	Suffix:          ".TA",
	LocalExchange:   "Tel Aviv (TASE)",
	LocalCurrency:   "ILS",
	ForeignExchange: "US/Global",
	ForeignCurrency: "USD",
}

// NormalizeSymbol upper-cases and trims a user-supplied ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Classify returns the exchange and currency implied by the symbol suffix.
func (m Markets) Classify(symbol string) SymbolInfo {
	sym := NormalizeSymbol(symbol)
	if m.Suffix != "" && strings.HasSuffix(sym, strings.ToUpper(m.Suffix)) {
		return SymbolInfo{Symbol: sym, Exchange: m.LocalExchange, Currency: m.LocalCurrency, Bucket: BucketLocal}
	}
	return SymbolInfo{Symbol: sym, Exchange: m.ForeignExchange, Currency: m.ForeignCurrency, Bucket: BucketForeign}
}

// CurrencyOf returns the currency code of a bucket.
func (m Markets) CurrencyOf(b Bucket) string {
	if b == BucketLocal {
		return m.LocalCurrency
	}
	return m.ForeignCurrency
}

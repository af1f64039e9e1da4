// Package export renders quote histories as CSV and JSON documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"TaseTracker/internal/model"
)

var csvHeader = []string{"date", "open", "high", "low", "close", "volume"}

// WriteCSV writes one row per bar, timestamps in RFC 3339 with offset.
func WriteCSV(w io.Writer, series *model.QuoteSeries) error {
	if series == nil || len(series.Bars) == 0 {
		return fmt.Errorf("export csv: %w", model.ErrDataUnavailable)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range series.Bars {
		row := []string{
			b.Time.Format(time.RFC3339),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatFloat(b.Volume, 'f', 0, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Statistics is the summary block of a JSON export.
type Statistics struct {
	Mean         float64  `json:"mean"`
	StdDev       float64  `json:"std_dev"`
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	VariationPct *float64 `json:"variation_pct"`
}

// Document is the JSON export of one symbol.
type Document struct {
	Symbol       string        `json:"symbol"`
	Exchange     string        `json:"exchange"`
	Currency     string        `json:"currency"`
	LastUpdate   time.Time     `json:"last_update"`
	Timezone     string        `json:"timezone"`
	CurrentPrice float64       `json:"current_price"`
	Statistics   Statistics    `json:"statistics"`
	Data         []model.Quote `json:"data"`
}

// NewDocument assembles the export document. now is expressed in loc.
func NewDocument(info model.SymbolInfo, series *model.QuoteSeries, stats *model.QuoteStats, now time.Time, loc *time.Location) Document {
	if loc == nil {
		loc = time.UTC
	}
	doc := Document{
		Symbol:     info.Symbol,
		Exchange:   info.Exchange,
		Currency:   info.Currency,
		LastUpdate: now.In(loc),
		Timezone:   loc.String(),
	}
	if series != nil {
		doc.Data = series.Bars
	}
	if stats != nil {
		doc.CurrentPrice = stats.CurrentPrice
		doc.Statistics = Statistics{
			Mean:   stats.Mean,
			StdDev: stats.StdDev,
			Min:    stats.Min,
			Max:    stats.Max,
		}
		if stats.HasVariation {
			v := stats.VariationPct
			doc.Statistics.VariationPct = &v
		}
	}
	return doc
}

// WriteJSON encodes doc with two-space indentation.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// FileName builds "<SYMBOL>_data_<YYYYmmdd_HHMMSS>.<ext>".
func FileName(symbol, ext string, now time.Time) string {
	return fmt.Sprintf("%s_data_%s.%s", model.NormalizeSymbol(symbol), now.Format("20060102_150405"), ext)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

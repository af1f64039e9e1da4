// Package portfolio values a virtual multi-currency book of purchase lots.
package portfolio

import (
	"fmt"

	"TaseTracker/internal/model"
)

// Book is the per-session collection of lots, grouped by symbol. Buying the
// same symbol twice keeps two lots; prices are never averaged. It is not safe
// for concurrent use.
type Book struct {
	order []string
	lots  map[string][]model.Position
}

func NewBook() *Book {
	return &Book{lots: make(map[string][]model.Position)}
}

// Add appends a validated lot.
func (b *Book) Add(p model.Position) error {
	p.Symbol = model.NormalizeSymbol(p.Symbol)
	if p.Symbol == "" || !model.PositiveFinite(p.Shares) || !model.PositiveFinite(p.BuyPrice) {
		return fmt.Errorf("invalid lot %+v: %w", p, model.ErrInvalidInput)
	}
	if _, ok := b.lots[p.Symbol]; !ok {
		b.order = append(b.order, p.Symbol)
	}
	b.lots[p.Symbol] = append(b.lots[p.Symbol], p)
	return nil
}

// Symbols lists held symbols in first-purchase order.
func (b *Book) Symbols() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Lots returns a copy of the lots held in symbol.
func (b *Book) Lots(symbol string) []model.Position {
	src := b.lots[model.NormalizeSymbol(symbol)]
	out := make([]model.Position, len(src))
	copy(out, src)
	return out
}

// Len is the total number of lots.
func (b *Book) Len() int {
	n := 0
	for _, l := range b.lots {
		n += len(l)
	}
	return n
}

// Reset empties the book.
func (b *Book) Reset() {
	b.order = nil
	b.lots = make(map[string][]model.Position)
}

package model

import (
	"fmt"
	"time"
)

// Position is one purchase lot. Lots are never mutated in place.
type Position struct {
	Symbol   string    `json:"symbol"`
	Shares   float64   `json:"shares"`
	BuyPrice float64   `json:"buy_price"`
	OpenedAt time.Time `json:"opened_at"`
}

// NewPosition validates and builds a lot.
func NewPosition(symbol string, shares, buyPrice float64, openedAt time.Time) (Position, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return Position{}, fmt.Errorf("position symbol is empty: %w", ErrInvalidInput)
	}
	if !PositiveFinite(shares) {
		return Position{}, fmt.Errorf("shares %v must be a positive number: %w", shares, ErrInvalidInput)
	}
	if !PositiveFinite(buyPrice) {
		return Position{}, fmt.Errorf("buy price %v must be a positive number: %w", buyPrice, ErrInvalidInput)
	}
	return Position{Symbol: sym, Shares: shares, BuyPrice: buyPrice, OpenedAt: openedAt}, nil
}

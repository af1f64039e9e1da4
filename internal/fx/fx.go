// Package fx converts amounts between the local and foreign currency buckets
// using an explicitly configured rate. Rates are never inferred from quotes.
package fx

import (
	"fmt"
	"sync"
	"time"

	"TaseTracker/internal/model"

	"github.com/shopspring/decimal"
)

// Provider supplies the conversion rate, expressed as local units per one
// foreign unit (e.g. 3.7 ILS per USD).
type Provider interface {
	Rate() decimal.Decimal
	Local() string
	Foreign() string
}

// Manager holds a substitutable fixed rate with concurrency safety.
type Manager struct {
	mu        sync.RWMutex
	local     string
	foreign   string
	rate      decimal.Decimal
	updatedAt time.Time
}

// NewManager creates a Manager for the local/foreign pair at rate.
func NewManager(local, foreign string, rate float64) (*Manager, error) {
	m := &Manager{local: local, foreign: foreign}
	if err := m.Set(rate); err != nil {
		return nil, err
	}
	return m, nil
}

// Set replaces the rate, e.g. with a value pulled from a live feed.
func (m *Manager) Set(rate float64) error {
	if !model.PositiveFinite(rate) {
		return fmt.Errorf("fx rate %v must be a positive number: %w", rate, model.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = decimal.NewFromFloat(rate)
	m.updatedAt = time.Now()
	return nil
}

func (m *Manager) Rate() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rate
}

// UpdatedAt reports when the rate was last set.
func (m *Manager) UpdatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updatedAt
}

// Local is the currency of the local bucket.
func (m *Manager) Local() string { return m.local }

// Foreign is the currency of the foreign bucket.
func (m *Manager) Foreign() string { return m.foreign }

// Convert expresses amount in the target currency. Only the configured pair
// is supported.
func Convert(p Provider, amount model.Money, target string) (model.Money, error) {
	if amount.Currency == target {
		return amount, nil
	}
	rate := p.Rate()
	switch {
	case amount.Currency == p.Foreign() && target == p.Local():
		return model.Money{Amount: amount.Amount.Mul(rate), Currency: target}, nil
	case amount.Currency == p.Local() && target == p.Foreign():
		if rate.IsZero() {
			return model.Money{}, fmt.Errorf("fx rate is zero: %w", model.ErrConfigurationMissing)
		}
		return model.Money{Amount: amount.Amount.Div(rate), Currency: target}, nil
	}
	return model.Money{}, fmt.Errorf("no rate for %s to %s: %w", amount.Currency, target, model.ErrInvalidInput)
}

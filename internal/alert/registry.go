// Package alert holds standing price alerts and evaluates them against quotes.
package alert

import (
	"fmt"

	"TaseTracker/internal/model"
)

// Registry is the ordered alert collection of one tracker session. It is not
// safe for concurrent use; the owning session serializes access.
type Registry struct {
	owner  string
	alerts []model.Alert
}

// NewRegistry creates an empty registry whose notifications go to owner.
func NewRegistry(owner string) *Registry {
	return &Registry{owner: owner}
}

// Owner is the notification recipient for this registry.
func (r *Registry) Owner() string { return r.owner }

// Add appends an alert. Invalid alerts and duplicate IDs are rejected.
func (r *Registry) Add(a model.Alert) error {
	if a.ID == "" {
		return fmt.Errorf("alert without id: %w", model.ErrInvalidInput)
	}
	a.Symbol = model.NormalizeSymbol(a.Symbol)
	if a.Symbol == "" || !model.PositiveFinite(a.Threshold) {
		return fmt.Errorf("alert %s: symbol %q threshold %v: %w", a.ID, a.Symbol, a.Threshold, model.ErrInvalidInput)
	}
	if a.Condition != model.ConditionAbove && a.Condition != model.ConditionBelow {
		return fmt.Errorf("alert %s condition %q: %w", a.ID, a.Condition, model.ErrInvalidInput)
	}
	for _, existing := range r.alerts {
		if existing.ID == a.ID {
			return fmt.Errorf("alert %s already registered: %w", a.ID, model.ErrInvalidInput)
		}
	}
	r.alerts = append(r.alerts, a)
	return nil
}

// Remove deletes the alert with id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	for i, a := range r.alerts {
		if a.ID == id {
			r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll deletes every alert whose ID is in ids and returns how many
// were removed. Unknown and repeated IDs are ignored.
func (r *Registry) RemoveAll(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.alerts[:0]
	removed := 0
	for _, a := range r.alerts {
		if drop[a.ID] {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.alerts = kept
	return removed
}

// List returns a copy of the alerts in registration order.
func (r *Registry) List() []model.Alert {
	out := make([]model.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// ForSymbol returns the alerts watching symbol, in registration order.
func (r *Registry) ForSymbol(symbol string) []model.Alert {
	var out []model.Alert
	for _, a := range r.alerts {
		if a.Symbol == symbol {
			out = append(out, a)
		}
	}
	return out
}

// Symbols lists distinct watched symbols in first-registration order.
func (r *Registry) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range r.alerts {
		if !seen[a.Symbol] {
			seen[a.Symbol] = true
			out = append(out, a.Symbol)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.alerts) }

// Clear removes every alert.
func (r *Registry) Clear() { r.alerts = nil }

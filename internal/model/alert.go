package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Condition is the direction an alert watches.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// ParseCondition accepts "above"/"below" in any case.
func ParseCondition(s string) (Condition, error) {
	switch Condition(strings.ToLower(strings.TrimSpace(s))) {
	case ConditionAbove:
		return ConditionAbove, nil
	case ConditionBelow:
		return ConditionBelow, nil
	}
	return "", fmt.Errorf("condition %q: %w", s, ErrInvalidInput)
}

// Recurrence controls whether an alert survives after firing.
type Recurrence string

const (
	RecurrenceOneShot    Recurrence = "one_shot"
	RecurrencePersistent Recurrence = "persistent"
)

// Alert is a standing price alert owned by one tracker session.
type Alert struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Threshold  float64    `json:"threshold"`
	Condition  Condition  `json:"condition"`
	Recurrence Recurrence `json:"recurrence"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewAlert validates the inputs and returns an alert with a fresh ID.
func NewAlert(symbol string, threshold float64, cond Condition, rec Recurrence, now time.Time) (Alert, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return Alert{}, fmt.Errorf("alert symbol is empty: %w", ErrInvalidInput)
	}
	if !PositiveFinite(threshold) {
		return Alert{}, fmt.Errorf("alert threshold %v must be a positive number: %w", threshold, ErrInvalidInput)
	}
	if cond != ConditionAbove && cond != ConditionBelow {
		return Alert{}, fmt.Errorf("alert condition %q: %w", cond, ErrInvalidInput)
	}
	if rec != RecurrenceOneShot && rec != RecurrencePersistent {
		return Alert{}, fmt.Errorf("alert recurrence %q: %w", rec, ErrInvalidInput)
	}
	return Alert{
		ID:         uuid.NewString(),
		Symbol:     sym,
		Threshold:  threshold,
		Condition:  cond,
		Recurrence: rec,
		CreatedAt:  now,
	}, nil
}

// Matches reports whether price satisfies the alert condition. Equality
// fires in both directions.
func (a Alert) Matches(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price >= a.Threshold
	case ConditionBelow:
		return price <= a.Threshold
	}
	return false
}

// OneShot reports whether the alert is removed after it fires.
func (a Alert) OneShot() bool { return a.Recurrence == RecurrenceOneShot }

// AlertTrigger is the notification payload built for each firing alert.
type AlertTrigger struct {
	Alert Alert      `json:"alert"`
	Info  SymbolInfo `json:"info"`
	Price float64    `json:"price"`
	Time  time.Time  `json:"time"`
}

package tracker

import (
	"sync"
	"time"

	"TaseTracker/internal/alert"
	"TaseTracker/internal/model"
	"TaseTracker/internal/portfolio"
)

// Session is the isolated state of one chat: its alerts, its virtual
// portfolio and its auto-refresh preference. Sessions never share state.
type Session struct {
	ID string

	mu          sync.Mutex
	alerts      *alert.Registry
	book        *portfolio.Book
	autoRefresh bool
	lastRefresh time.Time
	snapshot    *portfolio.Snapshot
	// undelivered holds alert delivery failures not yet shown to the user.
	undelivered []error
}

func newSession(id string, autoRefresh bool) *Session {
	return &Session{
		ID:          id,
		alerts:      alert.NewRegistry(id),
		book:        portfolio.NewBook(),
		autoRefresh: autoRefresh,
	}
}

// AutoRefresh reports whether the session takes part in timed refreshes.
func (s *Session) AutoRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoRefresh
}

// SetAutoRefresh toggles timed refreshes for the session.
func (s *Session) SetAutoRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRefresh = on
}

// LastRefresh is the time of the last completed refresh.
func (s *Session) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// LastSnapshot is the valuation produced by the most recent refresh or
// portfolio view, nil before the first one.
func (s *Session) LastSnapshot() *portfolio.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Session) markRefreshed(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = at
}

func (s *Session) queueUndelivered(errs []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undelivered = append(s.undelivered, errs...)
}

// takeUndelivered drains the pending delivery failures.
func (s *Session) takeUndelivered() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.undelivered
	s.undelivered = nil
	return out
}

// Alerts returns a copy of the standing alerts in registration order.
func (s *Session) Alerts() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.List()
}

func (s *Session) addAlert(a model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.Add(a)
}

func (s *Session) removeAlert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.Remove(id)
}

func (s *Session) addLot(p model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Add(p)
}

func (s *Session) resetBook() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book.Reset()
}

func (s *Session) heldSymbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Symbols()
}

// AlertCount is the number of standing alerts.
func (s *Session) AlertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.Len()
}

// LotCount is the number of portfolio lots.
func (s *Session) LotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Len()
}

// watched returns the symbols that need a price on refresh.
func (s *Session) watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, sym := range append(s.alerts.Symbols(), s.book.Symbols()...) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

// Package tracker owns the per-chat sessions and runs refresh cycles that tie
// quotes, alerts and portfolio valuation together.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"TaseTracker/internal/alert"
	"TaseTracker/internal/collector"
	"TaseTracker/internal/logging"
	"TaseTracker/internal/model"
	"TaseTracker/internal/notifier"
	"TaseTracker/internal/portfolio"
	"TaseTracker/internal/recorder"
	"TaseTracker/internal/session"
)

// Options holds presentation and default-behaviour settings.
type Options struct {
	Watchlist     []string
	DefaultSymbol string
	// UserLocation is the display timezone of the chat user.
	UserLocation *time.Location
	AutoRefresh  bool
}

// Deps bundles the collaborators of a Tracker.
type Deps struct {
	Markets    model.Markets
	Classifier *session.Classifier
	Collector  *collector.Collector
	Engine     *alert.Engine
	Aggregator *portfolio.Aggregator
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Log        *logging.Logger
}

// Tracker routes chat commands and timed refreshes to isolated sessions.
type Tracker struct {
	Deps
	opts     Options
	newYork  *time.Location
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a Tracker. Classifier, Collector, Engine and Aggregator are required.
func New(opts Options, deps Deps) (*Tracker, error) {
	if deps.Classifier == nil || deps.Collector == nil || deps.Engine == nil || deps.Aggregator == nil {
		return nil, fmt.Errorf("tracker dependencies: %w", model.ErrConfigurationMissing)
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.Noop{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Log == nil {
		deps.Log = logging.NewSilent()
	}
	if opts.UserLocation == nil {
		opts.UserLocation = time.UTC
	}
	if opts.DefaultSymbol == "" && len(opts.Watchlist) > 0 {
		opts.DefaultSymbol = opts.Watchlist[0]
	}
	return &Tracker{
		Deps:     deps,
		opts:     opts,
		newYork:  session.MustLoadLocation("America/New_York", -5),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// Session returns the session for id, creating it on first use.
func (t *Tracker) Session(id string) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		s = newSession(id, t.opts.AutoRefresh)
		t.sessions[id] = s
		t.Log.Info().Str("session", id).Msg("session created")
	}
	return s
}

// Sessions returns every known session ordered by ID.
func (t *Tracker) Sessions() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RefreshReport summarises one refresh cycle of a session.
type RefreshReport struct {
	Status   model.SessionStatus
	Alerts   []alert.Result
	Snapshot *portfolio.Snapshot
	Failures map[string]error
}

// Fired counts the alerts that fired during the cycle.
func (r RefreshReport) Fired() int {
	n := 0
	for _, res := range r.Alerts {
		n += len(res.Fired)
	}
	return n
}

// DeliveryErrors collects the notification failures of the cycle.
func (r RefreshReport) DeliveryErrors() []error {
	var out []error
	for _, res := range r.Alerts {
		out = append(out, res.DeliveryErrors...)
	}
	return out
}

// Refresh fetches prices for everything the session watches, evaluates its
// alerts and values its portfolio. Alerts are evaluated whatever the market
// state. A symbol that cannot be priced is skipped and never aborts the cycle.
func (t *Tracker) Refresh(ctx context.Context, s *Session) (RefreshReport, error) {
	report := RefreshReport{Status: t.Classifier.Now()}

	prices, failures := t.Collector.LastPrices(ctx, s.watched())
	report.Failures = failures
	t.recordFailures(failures)

	var errs []error
	results, err := t.evaluate(ctx, s, prices)
	report.Alerts = results
	if err != nil {
		errs = append(errs, err)
	}
	if s.LotCount() > 0 {
		snap, err := t.aggregate(s, prices)
		if err != nil {
			errs = append(errs, err)
		} else {
			report.Snapshot = &snap
			t.recordValuation(s.ID, snap)
		}
	}
	s.markRefreshed(t.now())

	t.Log.Debug().Str("session", s.ID).Int("fired", report.Fired()).Int("failures", len(failures)).Msg("refresh complete")
	return report, errors.Join(errs...)
}

// RefreshAll refreshes every session with auto-refresh enabled and returns
// how many were refreshed. Alert notifications that did not get through are
// reported to the session as a warning.
func (t *Tracker) RefreshAll(ctx context.Context) int {
	n := 0
	for _, s := range t.Sessions() {
		if !s.AutoRefresh() {
			continue
		}
		if ctx.Err() != nil {
			return n
		}
		report, err := t.Refresh(ctx, s)
		if err != nil {
			t.Log.Warn().Err(err).Str("session", s.ID).Msg("refresh failed")
		}
		if undelivered := report.DeliveryErrors(); len(undelivered) > 0 {
			t.warnUndelivered(ctx, s, undelivered)
		}
		n++
	}
	return n
}

// warnUndelivered tells the session that alert notifications failed. When the
// warning itself cannot be delivered it is kept for the next command reply.
func (t *Tracker) warnUndelivered(ctx context.Context, s *Session, undelivered []error) {
	body := notifier.FormatDeliveryWarning(undelivered)
	err := t.Notifier.Send(ctx, "Alert delivery warning", body, s.ID)
	if notifier.Delivered(err) {
		return
	}
	t.Log.Warn().Err(err).Str("session", s.ID).Msg("delivery warning not sent, keeping it for the next reply")
	s.queueUndelivered(undelivered)
}

// Digest sends the market status and portfolio valuation to every session
// holding positions.
func (t *Tracker) Digest(ctx context.Context) error {
	var errs []error
	for _, s := range t.Sessions() {
		if s.LotCount() == 0 {
			continue
		}
		snap, _, err := t.value(ctx, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		body := t.statusText() + "\n" + notifier.FormatPortfolio(snap)
		if err := t.Notifier.Send(ctx, "Daily portfolio digest", body, s.ID); err != nil {
			t.Log.Warn().Err(err).Str("session", s.ID).Msg("digest delivery failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// value prices the session book without holding the session lock during
// fetches and returns the prices it used.
func (t *Tracker) value(ctx context.Context, s *Session) (portfolio.Snapshot, map[string]float64, error) {
	prices, failures := t.Collector.LastPrices(ctx, s.heldSymbols())
	t.recordFailures(failures)

	snap, err := t.aggregate(s, prices)
	if err != nil {
		return portfolio.Snapshot{}, prices, err
	}
	t.recordValuation(s.ID, snap)
	return snap, prices, nil
}

// evaluate runs the session's alerts against every priced symbol.
func (t *Tracker) evaluate(ctx context.Context, s *Session, prices map[string]float64) ([]alert.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		results []alert.Result
		errs    []error
	)
	for _, sym := range s.alerts.Symbols() {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		res, err := t.Engine.Evaluate(ctx, s.alerts, sym, price)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(res.Fired) > 0 {
			results = append(results, res)
		}
	}
	return results, errors.Join(errs...)
}

// aggregate values the session book and keeps the result as its last snapshot.
func (t *Tracker) aggregate(s *Session, prices map[string]float64) (portfolio.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := t.Aggregator.Aggregate(s.book, prices)
	if err != nil {
		return portfolio.Snapshot{}, err
	}
	s.snapshot = &snap
	return snap, nil
}

// checkPriced evaluates the session's alerts against prices fetched while
// serving a command and renders what happened for the reply.
func (t *Tracker) checkPriced(ctx context.Context, s *Session, prices map[string]float64) string {
	results, err := t.evaluate(ctx, s, prices)
	if err != nil {
		t.Log.Warn().Err(err).Str("session", s.ID).Msg("alert evaluation failed")
	}
	return t.alertNotes(results)
}

func (t *Tracker) alertNotes(results []alert.Result) string {
	var (
		triggers    []model.AlertTrigger
		undelivered []error
	)
	for _, res := range results {
		info := t.Markets.Classify(res.Symbol)
		for _, a := range res.Fired {
			triggers = append(triggers, model.AlertTrigger{Alert: a, Info: info, Price: res.Price})
		}
		undelivered = append(undelivered, res.DeliveryErrors...)
	}
	var parts []string
	if len(triggers) > 0 {
		parts = append(parts, notifier.FormatFired(triggers))
	}
	if len(undelivered) > 0 {
		parts = append(parts, notifier.FormatDeliveryWarning(undelivered))
	}
	return strings.Join(parts, "\n\n")
}

func (t *Tracker) renderReport(r RefreshReport) string {
	parts := []string{t.statusText()}
	if notes := t.alertNotes(r.Alerts); notes != "" {
		parts = append(parts, notes)
	}
	if r.Snapshot != nil {
		parts = append(parts, notifier.FormatPortfolio(*r.Snapshot))
	}
	if len(r.Failures) > 0 {
		syms := make([]string, 0, len(r.Failures))
		for sym := range r.Failures {
			syms = append(syms, sym)
		}
		sort.Strings(syms)
		parts = append(parts, "No quote: "+strings.Join(syms, ", "))
	}
	return strings.Join(parts, "\n\n")
}

func (t *Tracker) statusText() string {
	st := t.Classifier.Now()
	now := st.LocalTime
	clocks := []notifier.Clock{
		{Label: "You", Time: now.In(t.opts.UserLocation)},
		{Label: "Exchange", Time: now},
		{Label: "New York", Time: now.In(t.newYork)},
	}
	return notifier.FormatStatus(t.Markets.LocalExchange, st, clocks)
}

func (t *Tracker) recordFailures(failures map[string]error) {
	for sym, err := range failures {
		evt := &recorder.FetchFailureEvent{
			Symbol: sym,
			Source: t.Collector.Fetcher.Name(),
			Error:  err.Error(),
			Time:   t.now(),
		}
		if rerr := t.Recorder.RecordFetchFailure(evt); rerr != nil {
			t.Log.Error().Err(rerr).Msg("record fetch failure")
		}
	}
}

func (t *Tracker) recordValuation(recipient string, snap portfolio.Snapshot) {
	if err := t.Recorder.RecordValuation(valuationEvent(recipient, snap)); err != nil {
		t.Log.Error().Err(err).Msg("record valuation")
	}
}

func valuationEvent(recipient string, snap portfolio.Snapshot) *recorder.ValuationEvent {
	priced := 0
	for _, h := range snap.Holdings {
		if !h.Unpriced {
			priced++
		}
	}
	return &recorder.ValuationEvent{
		Recipient:   recipient,
		Time:        snap.Time,
		Currency:    snap.ReportingCurrency,
		Cost:        snap.Total.Cost.Amount.String(),
		MarketValue: snap.Total.MarketValue.Amount.String(),
		Profit:      snap.Total.Profit.Amount.String(),
		ProfitPct:   snap.Total.ProfitPct.StringFixed(4),
		Positions:   priced,
		Unpriced:    len(snap.Unpriced),
	}
}

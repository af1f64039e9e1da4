package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TaseTracker/internal/logging"
	"TaseTracker/internal/model"
	"TaseTracker/internal/notifier"
	"TaseTracker/internal/recorder"
)

// Result describes one evaluation pass.
type Result struct {
	Symbol string
	Price  float64
	// Fired holds the alerts whose condition held, in registry order.
	Fired []model.Alert
	// Removed holds the IDs of one-shot alerts dropped after the pass.
	Removed []string
	// DeliveryErrors holds notifier failures. They never change lifecycle.
	DeliveryErrors []error
}

// Err joins the delivery failures, nil when every notification went out.
func (r Result) Err() error {
	return errors.Join(r.DeliveryErrors...)
}

// Engine evaluates registries against live prices.
type Engine struct {
	markets  model.Markets
	notifier notifier.Notifier
	recorder recorder.Recorder
	log      *logging.Logger
	now      func() time.Time
}

// NewEngine creates an engine. A nil notifier or recorder disables that side effect.
func NewEngine(markets model.Markets, n notifier.Notifier, rec recorder.Recorder, log *logging.Logger) *Engine {
	if n == nil {
		n = notifier.Noop{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = logging.NewSilent()
	}
	return &Engine{markets: markets, notifier: n, recorder: rec, log: log, now: time.Now}
}

// Evaluate checks every alert for symbol in reg against price. Each firing
// alert is notified once; after the whole pass the fired one-shot alerts are
// removed from reg. Persistent alerts fire again on every qualifying call.
func (e *Engine) Evaluate(ctx context.Context, reg *Registry, symbol string, price float64) (Result, error) {
	sym := model.NormalizeSymbol(symbol)
	res := Result{Symbol: sym, Price: price}
	if !model.PositiveFinite(price) {
		return res, fmt.Errorf("evaluate %s at %v: %w", sym, price, model.ErrInvalidInput)
	}

	info := e.markets.Classify(sym)
	now := e.now()
	var oneShot []string

	for _, a := range reg.ForSymbol(sym) {
		if !a.Matches(price) {
			continue
		}
		res.Fired = append(res.Fired, a)
		if a.OneShot() {
			oneShot = append(oneShot, a.ID)
		}

		trigger := model.AlertTrigger{Alert: a, Info: info, Price: price, Time: now}
		subject, body := notifier.FormatAlert(trigger)
		sendErr := e.notifier.Send(ctx, subject, body, reg.Owner())
		if sendErr != nil {
			e.log.Warn().Err(sendErr).Str("alert", a.ID).Str("symbol", sym).Msg("alert notification failed")
			res.DeliveryErrors = append(res.DeliveryErrors, fmt.Errorf("alert %s: %w", a.ID, sendErr))
		} else {
			e.log.Info().Str("alert", a.ID).Str("symbol", sym).Float64("price", price).
				Float64("threshold", a.Threshold).Str("condition", string(a.Condition)).Msg("alert fired")
		}
		if err := e.recorder.RecordAlertTrigger(&recorder.AlertTriggerEvent{
			Trigger:   trigger,
			Delivered: notifier.Delivered(sendErr),
			Error:     errString(sendErr),
		}); err != nil {
			e.log.Error().Err(err).Msg("record alert trigger")
		}
	}

	reg.RemoveAll(oneShot)
	res.Removed = oneShot
	return res, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

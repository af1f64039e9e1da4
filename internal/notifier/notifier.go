package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"TaseTracker/internal/model"
)

// Notifier delivers a rendered message. A nil error means delivered.
// Implementations never retry.
type Notifier interface {
	Send(ctx context.Context, subject, body, recipient string) error
	Name() string
}

// Noop discards every message. It is used when no channel is configured.
type Noop struct{}

func (Noop) Send(context.Context, string, string, string) error { return nil }

func (Noop) Name() string { return "noop" }

// PartialDelivery is returned by Multi when some channels delivered and
// others failed.
type PartialDelivery struct {
	Delivered []string
	Err       error
}

func (e *PartialDelivery) Error() string {
	return fmt.Sprintf("delivered via %s; %v", strings.Join(e.Delivered, ", "), e.Err)
}

func (e *PartialDelivery) Unwrap() error { return e.Err }

// Delivered reports whether err still left the message with the recipient on
// at least one channel.
func Delivered(err error) bool {
	var partial *PartialDelivery
	return err == nil || errors.As(err, &partial)
}

// Multi fans a message out to several notifiers. Every channel failure is
// reported: a *PartialDelivery when at least one channel delivered, the
// joined failures otherwise.
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Send(ctx context.Context, subject, body, recipient string) error {
	var (
		errs      []error
		delivered []string
	)
	for _, n := range m {
		if err := n.Send(ctx, subject, body, recipient); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		delivered = append(delivered, n.Name())
	}
	if len(errs) == 0 {
		return nil
	}
	if len(delivered) > 0 {
		return &PartialDelivery{Delivered: delivered, Err: errors.Join(errs...)}
	}
	return errors.Join(errs...)
}

func deliveryError(channel string, err error) error {
	return fmt.Errorf("%s: %v: %w", channel, err, model.ErrDeliveryFailure)
}

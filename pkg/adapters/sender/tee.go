package sender

import (
	"context"
	"errors"

	"github.com/aretw0/tick/pkg/ports"
)

// Tee delivers every message to all the senders, in order.
// Every sender is called even when one fails; the failures are joined.
func Tee(senders ...ports.Sender) ports.Sender {
	return tee(senders)
}

type tee []ports.Sender

func (t tee) SendByID(ctx context.Context, labelID string, end bool) error {
	return t.each(func(s ports.Sender) error { return s.SendByID(ctx, labelID, end) })
}

func (t tee) SendPlainText(ctx context.Context, text string, end bool) error {
	return t.each(func(s ports.Sender) error { return s.SendPlainText(ctx, text, end) })
}

func (t tee) End(ctx context.Context) error {
	return t.each(func(s ports.Sender) error { return s.End(ctx) })
}

func (t tee) each(fn func(ports.Sender) error) error {
	var errs []error
	for _, s := range t {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

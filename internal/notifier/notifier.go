// Package notifier delivers a finished report to its recipients.
package notifier

import (
	"context"

	crerr "github.com/cockroachdb/errors"
)

// ErrNotify marks a delivery that did not complete.
var ErrNotify = crerr.New("notification failed")

// Notifier sends one message. A nil error means the message was delivered.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
	Type() string
}

// Multi delivers through every channel and succeeds only if all of them do.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, subject, body string) error {
	if len(m) == 0 {
		return crerr.Mark(crerr.New("no notification channels configured"), ErrNotify)
	}
	var combined error
	for _, n := range m {
		if err := n.Notify(ctx, subject, body); err != nil {
			combined = crerr.CombineErrors(combined, crerr.Wrapf(err, "%s", n.Type()))
		}
	}
	if combined != nil {
		return crerr.Mark(combined, ErrNotify)
	}
	return nil
}

func (m Multi) Type() string { return "multi" }

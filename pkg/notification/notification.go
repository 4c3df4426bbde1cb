// Package notification fans a customer or staff notification out over
// mail and SMS.
//
//	type OrderConfirmed struct{ Order models.Order }
//	func (n OrderConfirmed) Via() []string          { return []string{notification.Mail, notification.SMS} }
//	func (n OrderConfirmed) ToMail() notification.MailData { ... }
//	func (n OrderConfirmed) ToSMS() string          { ... }
//
//	notification.Send(ctx, notification.Recipient{Email: u.Email, Phone: u.Phone}, OrderConfirmed{order})
package notification

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/mail"
)

// Channel names.
const (
	Mail = "mail"
	SMS  = "sms"
)

// Recipient is where a notification goes. Channels with an empty address
// are skipped.
type Recipient struct {
	Email string
	Phone string
}

// MailData carries the mail channel content. Template wins over Text.
type MailData struct {
	Subject  string
	Template *template.Template
	Data     interface{}
	Text     string
}

// Notification is the interface every notification must satisfy.
type Notification interface {
	Via() []string
}

// Mailable supports the mail channel.
type Mailable interface {
	ToMail() MailData
}

// Textable supports the SMS channel.
type Textable interface {
	ToSMS() string
}

// Send dispatches n over each of its channels and joins the failures.
func Send(ctx context.Context, to Recipient, n Notification) error {
	var errs []error
	for _, channel := range n.Via() {
		if err := dispatch(ctx, to, channel, n); err != nil {
			logger.WithCtx(ctx).Error("notification: channel failed", "channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func dispatch(ctx context.Context, to Recipient, channel string, n Notification) error {
	switch channel {
	case Mail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		if to.Email == "" {
			return nil
		}
		return sendMail(ctx, to.Email, m.ToMail())

	case SMS:
		t, ok := n.(Textable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Textable", n)
		}
		if to.Phone == "" {
			return nil
		}
		return texter().Send(ctx, []string{to.Phone}, t.ToSMS())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

func sendMail(ctx context.Context, address string, d MailData) error {
	msg := mail.To(address).WithSubject(d.Subject)
	if d.Template != nil {
		msg = msg.HTML(d.Template, d.Data)
	} else {
		msg = msg.Text(d.Text)
	}
	return msg.Send(ctx)
}

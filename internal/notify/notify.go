// Package notify delivers outbound email for the rental workflows.
package notify

import (
	"context" // Send deadlines
	"errors"  // Sentinel errors
	"time"    // Timeouts

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gopkg.in/gomail.v2"         // SMTP client
)

// SendTimeout bounds a single SMTP delivery
const SendTimeout = 10 * time.Second

// ErrMissingParams is returned when a message lacks a recipient, subject or body
var ErrMissingParams = errors.New("missing required email parameters")

// Notifier sends a plain text message to one recipient
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer sends through an SMTP relay
type Mailer struct {
	dialer  *gomail.Dialer // SMTP connection settings
	from    string         // Sender address
	timeout time.Duration  // Per message deadline
}

// NewMailer builds an SMTP mailer
func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(host, port, user, pass),
		from:    from,
		timeout: SendTimeout,
	}
}

// Send delivers the message or gives up when the deadline passes
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" || subject == "" || body == "" {
		return ErrMissingParams
	}
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "Property Sync")
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	done := make(chan error, 1) // Buffered so the sender never leaks
	go func() { done <- m.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		if err == nil {
			logrus.WithFields(logrus.Fields{"recipient": to, "subject": subject}).Info("Email sent")
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier only logs messages; used when no SMTP relay is configured
type LogNotifier struct{}

// Send logs the message
func (LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	if to == "" || subject == "" {
		return ErrMissingParams
	}
	logrus.WithFields(logrus.Fields{"recipient": to, "subject": subject}).Info("Email suppressed, SMTP not configured")
	return nil
}

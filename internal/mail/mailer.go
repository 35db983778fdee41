// Package mail sends the new-listings email over one STARTTLS SMTP
// session per cycle.
package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"funda-listing-notifier/config"
)

const subject = "New Funda Listings"

// Error wraps an email fault with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("mail %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Body joins listing URLs with blank-line separators, one plaintext
// message regardless of count.
func Body(urls []string) string {
	return strings.Join(urls, "\n\n")
}

type SMTPMailer struct {
	cfg    config.Config
	logger *zap.SugaredLogger
}

type NewSMTPMailerParams struct {
	fx.In

	Cfg    config.Config
	Logger *zap.SugaredLogger
}

func NewSMTPMailer(p NewSMTPMailerParams) *SMTPMailer {
	return &SMTPMailer{cfg: p.Cfg, logger: p.Logger}
}

// Notify sends one plaintext message with all given URLs to the
// configured recipient. The caller flips notified flags only after this
// returns nil; a failed send leaves them unnotified for the next cycle.
func (m *SMTPMailer) Notify(ctx context.Context, urls []string) error {
	if err := m.cfg.ValidateSMTP(); err != nil {
		return &Error{Op: "config", Err: err}
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.FromEmail); err != nil {
		return &Error{Op: "build", Err: err}
	}
	if err := msg.To(m.cfg.ToEmail); err != nil {
		return &Error{Op: "build", Err: err}
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, Body(urls))

	client, err := gomail.NewClient(
		m.cfg.SMTPHost,
		gomail.WithPort(m.cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.FromEmail),
		gomail.WithPassword(m.cfg.SMTPPassword),
	)
	if err != nil {
		return &Error{Op: "connect", Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &Error{Op: "send", Err: err}
	}

	m.logger.Infow("notification_sent", "to", m.cfg.ToEmail, "listings", len(urls))
	return nil
}

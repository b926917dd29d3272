// Package mail delivers rendered messages through SMTP or the SendGrid API.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"health-reminder-api/internal/config"
)

// ErrNotConfigured is returned by the fallback transport when no mail
// credentials are set.
var ErrNotConfigured = errors.New("mail transport not configured")

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport sends one message. A nil error means the message was accepted
// for delivery.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// FromConfig picks the transport named by MAIL_DRIVER.
func FromConfig(cfg *config.Config, log zerolog.Logger) (Transport, error) {
	log = log.With().Str("component", "mail").Str("driver", cfg.MailDriver).Logger()
	switch cfg.MailDriver {
	case "smtp":
		if !cfg.SMTPConfigured() {
			log.Warn().Msg("email settings are not configured, reminders will not be sent")
			return Unconfigured{}, nil
		}
		return NewSMTP(SMTPConfig{
			Host:     cfg.MailServer,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
		}), nil
	case "sendgrid":
		return NewSendGrid(SendGridConfig{
			APIKey:  cfg.SendGridAPIKey,
			BaseURL: cfg.SendGridBaseURL,
			From:    cfg.MailFrom,
			Timeout: cfg.MailSendTimeout,
		})
	case "log":
		return NewLog(log), nil
	}
	return nil, fmt.Errorf("unsupported MAIL_DRIVER: %s", cfg.MailDriver)
}

type Unconfigured struct{}

func (Unconfigured) Send(context.Context, Message) error { return ErrNotConfigured }

// Log writes messages to the logger instead of sending them.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log { return &Log{log: log} }

func (l *Log) Send(_ context.Context, msg Message) error {
	l.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("text_bytes", len(msg.Text)).
		Int("html_bytes", len(msg.HTML)).
		Msg("mail not sent (log driver)")
	return nil
}

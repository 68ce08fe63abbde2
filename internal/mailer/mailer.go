// Package mailer sends plain-text notification mail over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/iliyamo/campus-events/internal/config"
	"github.com/iliyamo/campus-events/internal/logger"
)

// ErrNoRecipients is returned for a message without any To address.
var ErrNoRecipients = errors.New("mailer: no recipients")

// Message is a plain-text email.
type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// SMTPMailer delivers Messages through the configured SMTP relay.  When
// the relay is not configured Send logs and returns nil.
type SMTPMailer struct {
	cfg config.MailConfig
	log *slog.Logger
}

// New returns an SMTPMailer for cfg.
func New(cfg config.MailConfig, log *slog.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Discard()
	}
	return &SMTPMailer{cfg: cfg, log: log.With(slog.String("component", "mailer"))}
}

// Send builds msg and delivers it in one SMTP session.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled() {
		m.log.Warn("SMTP not configured, skipping mail", slog.Any("to", msg.To))
		return nil
	}
	out, err := m.build(msg)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	m.log.Info("mail sent", slog.String("subject", msg.Subject), slog.Int("recipients", len(msg.To)+len(msg.Cc)))
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Secure || m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass),
		)
	}
	return opts
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	out := mail.NewMsg()
	if err := out.From(m.cfg.Sender()); err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := out.Cc(msg.Cc...); err != nil {
			return nil, fmt.Errorf("mailer: cc: %w", err)
		}
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}

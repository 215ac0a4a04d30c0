package mailer

import (
	"context"

	gomail "gopkg.in/gomail.v2"

	"github.com/givebridge/givebridge/internal/config"
)

// SMTPProvider sends mail through a plain SMTP relay.
type SMTPProvider struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewSMTPProvider creates an SMTP provider from the relay settings.
func NewSMTPProvider(cfg config.MailerConfig) *SMTPProvider {
	return &SMTPProvider{
		dialer:    gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

// Send delivers one message. gomail dials per call; outreach volumes are
// small enough that connection reuse is not worth the bookkeeping.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.fromEmail, p.fromName)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	if msg.TextBody != "" {
		m.AddAlternative("text/plain", msg.TextBody)
	}

	return p.dialer.DialAndSend(m)
}

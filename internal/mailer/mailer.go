// Package mailer sends outreach email through a pluggable provider.
// SES is the default; an SMTP relay backs local and self-hosted setups.
package mailer

import (
	"context"
	"fmt"

	"github.com/givebridge/givebridge/internal/config"
)

// Message is one outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Provider sends a single message. Implementations must be safe for
// concurrent use; the send loop calls Send from multiple workers.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the provider selected by the config.
func New(ctx context.Context, cfg config.MailerConfig) (Provider, error) {
	switch cfg.Provider {
	case "ses":
		return NewSESProvider(ctx, cfg)
	case "smtp":
		return NewSMTPProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mailer provider %q", cfg.Provider)
	}
}

func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

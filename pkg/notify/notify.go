// Package notify delivers transactional email such as password reset links.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier sends a message. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

var (
	ErrInvalidMessage = errors.New("notify: invalid message")
	ErrNotConfigured  = errors.New("notify: provider not configured")
)

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return nil
}

// Config selects and configures a provider.
type Config struct {
	Provider string // "sendgrid", "mailgun", "log"
	From     string
	FromName string

	SendGridKey string

	MailgunDomain string
	MailgunKey    string
}

// New builds the notifier named by cfg.Provider. An empty provider selects
// the log notifier.
func New(cfg Config) (Notifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "log":
		return NewLog(), nil
	case "sendgrid":
		return NewSendGrid(cfg.SendGridKey, cfg.From, cfg.FromName)
	case "mailgun":
		return NewMailgun(cfg.MailgunDomain, cfg.MailgunKey, cfg.From)
	default:
		return nil, fmt.Errorf("notify: unknown provider %q", cfg.Provider)
	}
}
